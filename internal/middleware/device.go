package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DeviceCookieName identifies the browser profile whose local storage scope a request uses.
const DeviceCookieName = "haiintel_device"

const deviceCookieMaxAge = 365 * 24 * time.Hour

type deviceKey struct{}

// Device makes sure every request carries a device id, issuing a new cookie when the
// browser has none or presents a malformed one.
func Device(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := readDevice(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(deviceCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), id)))
		})
	}
}

// WithDeviceID stores the device id in ctx.
func WithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceKey{}, id)
}

// DeviceID returns the device id set by Device, or "" outside it.
func DeviceID(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}

func readDevice(r *http.Request) string {
	c, err := r.Cookie(DeviceCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}
