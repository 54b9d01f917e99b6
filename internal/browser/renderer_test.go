package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestPostData(t *testing.T) {
	t.Run("nil request", func(t *testing.T) {
		assert.Equal(t, "", postData(nil))
	})

	t.Run("no body", func(t *testing.T) {
		assert.Equal(t, "", postData(&network.Request{URL: "https://example.com"}))
	})

	t.Run("multiple entries join in order", func(t *testing.T) {
		req := &network.Request{
			HasPostData: true,
			PostDataEntries: []*network.PostDataEntry{
				{Bytes: "email="},
				{Bytes: "a@b.com"},
			},
		}
		assert.Equal(t, "email=a@b.com", postData(req))
	})
}

func TestSecurityDetail(t *testing.T) {
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := cdp.TimeSinceEpoch(expiry)

	detail := securityDetail(&network.SecurityDetails{
		Protocol: "TLS 1.3",
		Issuer:   "Example CA",
		ValidTo:  &ts,
	})

	assert.Equal(t, "TLS 1.3", detail.Protocol)
	assert.Equal(t, "Example CA", detail.Issuer)
	assert.Equal(t, expiry, detail.ValidTo)
}

func TestSecurityDetailMissingExpiry(t *testing.T) {
	detail := securityDetail(&network.SecurityDetails{Protocol: "TLS 1.2"})
	assert.True(t, detail.ValidTo.IsZero())
}
