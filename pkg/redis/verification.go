package redis

import (
	"context"
	"errors"
	"time"
)

// PendingVerification is the code/phone pair cached while a customer proves
// ownership of a new phone number. Both keys expire together.
type PendingVerification struct {
	Code  string
	Phone string
}

// StoreVerification caches the code and the phone it was sent to for ttl.
// A second request before expiry overwrites the previous pair.
func (c *Client) StoreVerification(ctx context.Context, customerID string, pending PendingVerification, ttl time.Duration) error {
	if err := c.Set(ctx, c.VerifyCodeKey(customerID), pending.Code, ttl); err != nil {
		return err
	}
	return c.Set(ctx, c.PendingPhoneKey(customerID), pending.Phone, ttl)
}

// GetVerification returns the cached pair, or redis.Nil-wrapped miss when the
// code expired or was never requested.
func (c *Client) GetVerification(ctx context.Context, customerID string) (PendingVerification, error) {
	code, err := c.Get(ctx, c.VerifyCodeKey(customerID))
	if err != nil {
		return PendingVerification{}, err
	}
	phone, err := c.Get(ctx, c.PendingPhoneKey(customerID))
	if err != nil {
		if errors.Is(err, Nil) {
			// Code outlived the phone key; treat the pair as expired.
			return PendingVerification{}, Nil
		}
		return PendingVerification{}, err
	}
	return PendingVerification{Code: code, Phone: phone}, nil
}

// ClearVerification drops the cached pair after a successful verify.
func (c *Client) ClearVerification(ctx context.Context, customerID string) error {
	return c.Del(ctx, c.VerifyCodeKey(customerID), c.PendingPhoneKey(customerID))
}
