package client

import (
	"fmt"
	"time"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithOwner sets the X-Owner-ID header on every request.
func WithOwner(owner string) Option {
	return func(c *Client) error {
		c.owner = owner
		return nil
	}
}

// WithLanguage selects the language of server messages and generated text.
func WithLanguage(lang model.Language) Option {
	return func(c *Client) error {
		if lang != model.LangKorean && lang != model.LangEnglish {
			return fmt.Errorf("unsupported language %q", lang)
		}
		c.language = lang
		return nil
	}
}

// WithAdminToken sets the bearer token sent on operator-only calls.
func WithAdminToken(token string) Option {
	return func(c *Client) error {
		c.admin = token
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.http.SetTimeout(d)
		return nil
	}
}

// WithDebugLogging logs every request and response through resty.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.http.SetDebug(enabled)
		return nil
	}
}
