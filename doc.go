// Package identity provides the authentication and authorization core for the
// platform backend: JWT issuance and verification, password credentials,
// single-use secrets, and role-based access decisions.
//
// Tokens:
//   - TokenService signs and validates HS256 bearer tokens with a pinned
//     signing method. Auther builds on it to turn verified credentials into
//     tokens and tokens back into sessions.
//   - HeaderResolver resolves an Authorization header to a live Identity,
//     failing closed on any decode, lookup, or account-state problem.
//
// Credentials:
//   - Command handlers (RegisterUser, ChangePassword, password reset and
//     email verification flows) own the mutation paths. Each runs inside a
//     repository transaction and reports failures as rich error values.
//   - SingleUseTokens issues and redeems hashed one-shot secrets; a secret is
//     scoped to a purpose, superseded by reissue, and spent atomically.
//
// Authorization:
//   - RequireRole and RequireMinimumRole produce Decision values from an
//     Identity and the role hierarchy; denial reasons distinguish missing
//     authentication from insufficient role.
//
// The social subpackage brokers provider access tokens (Google, Facebook)
// into platform identities, creating or linking accounts by email.
package identity
