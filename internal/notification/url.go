package notification

import (
	"net/url"
	"strings"
)

// VerificationURL builds <base>/verify?email=<email>&code=<code>.
func VerificationURL(baseURL, email, code string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("code", code)
	return strings.TrimRight(baseURL, "/") + "/verify?" + q.Encode()
}
