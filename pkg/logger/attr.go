package logger

import (
	"log/slog"
	"time"
)

// Error records err under the key "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// PurchaseToken records a masked purchase token under "purchase_token".
// Only the last six characters are kept.
func PurchaseToken(token string) slog.Attr {
	const visible = 6
	if len(token) <= visible {
		return slog.String("purchase_token", "***")
	}
	return slog.String("purchase_token", "***"+token[len(token)-visible:])
}

// SubscriptionState records a provider subscription state.
func SubscriptionState(state string) slog.Attr {
	return slog.String("subscription_state", state)
}

// Tier records an account tier under the key "tier".
func Tier(t int) slog.Attr {
	return slog.Int("tier", t)
}

// Resource records a quota resource kind under the key "resource".
func Resource(kind string) slog.Attr {
	return slog.String("resource", kind)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}
