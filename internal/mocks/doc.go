// Package mocks holds hand-written test doubles for the interfaces that sit
// on process boundaries: the answer grader and the token validator.
//
// Each mock has a function field per method for custom behavior, default
// return values used when the function is nil, and call tracking where tests
// need to count calls:
//
//	jwt := &mocks.MockJWTService{
//	    ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
//	        return &auth.Claims{UserID: userID}, nil
//	    },
//	}
package mocks
