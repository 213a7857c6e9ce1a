// Package service holds what the use-case packages below it share: the
// sentinel errors the API maps to status codes and NewError, which keeps
// infrastructure failures out of client responses.
//
// Each use case lives in a subpackage:
//
//   - catalog resolves topic references against the cached catalog
//   - training finishes sessions and grades voice answers
//   - progress serves mastery, unlock maps and leaderboards
//   - ledger applies point and lingdou changes
//   - shop exchanges lingdou for products
//   - auth validates access tokens
package service
