package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
// When Check is set it takes precedence over the static AdminID.
type AdminOptions struct {
	AdminID  int64
	Check    func(userID int64) bool
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allowed(userID int64) bool {
	if o.Check != nil {
		return o.Check(userID)
	}
	return o.AdminID != 0 && userID == o.AdminID
}

func (o AdminOptions) enabled() bool {
	return o.Check != nil || o.AdminID != 0
}

// AdminOnlyMiddleware ensures that only admin users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.enabled() && !opts.allowed(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
