// Package jwt implements the gateway's default bearer-token validator on
// top of github.com/golang-jwt/jwt/v5.
//
// [Manager] verifies HS256 or Ed25519 signatures, enforces issuer, audience,
// and bounded clock leeway, and consults an optional [RevocationList] so the
// gateway can distinguish revoked tokens from merely invalid ones. Token
// issuance belongs to the identity service; [Manager.Issue] exists for tests
// and local tooling only.
package jwt
