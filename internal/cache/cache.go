// Package cache provides the cache-aside read cache for booking and
// conference-bookings lookups, backed by pkg/cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"seatline/pkg/cache"
	"seatline/pkg/logger"

	"github.com/google/uuid"
)

const keyPrefix = "seatline:cache:"

// BookingCache wraps the generic cache.Service with the key scheme and TTL
// for booking reads, and implements bookings.Cache so writes evict it.
type BookingCache struct {
	svc cache.Service
	ttl time.Duration
	log *logger.Logger
}

func NewBookingCache(svc cache.Service, ttl time.Duration) *BookingCache {
	return &BookingCache{svc: svc, ttl: ttl, log: logger.GetDefault()}
}

func bookingKey(id uuid.UUID) string {
	return fmt.Sprintf("%sbooking:%s", keyPrefix, id.String())
}

func conferenceBookingsKey(confID uuid.UUID) string {
	return fmt.Sprintf("%sconference:%s:bookings", keyPrefix, confID.String())
}

// GetBooking returns a cached booking read, or cache.ErrCacheMiss.
func (c *BookingCache) GetBooking(ctx context.Context, id uuid.UUID, dest interface{}) error {
	return c.svc.Get(ctx, bookingKey(id), dest)
}

// SetBooking caches a booking read.
func (c *BookingCache) SetBooking(ctx context.Context, id uuid.UUID, value interface{}) {
	if err := c.svc.Set(ctx, bookingKey(id), value, c.ttl); err != nil {
		c.log.ErrorWithContext(ctx, "failed to cache booking", err, nil)
	}
}

// GetConferenceBookings returns a cached conference-bookings listing, or
// cache.ErrCacheMiss.
func (c *BookingCache) GetConferenceBookings(ctx context.Context, confID uuid.UUID, dest interface{}) error {
	return c.svc.Get(ctx, conferenceBookingsKey(confID), dest)
}

// SetConferenceBookings caches a conference-bookings listing.
func (c *BookingCache) SetConferenceBookings(ctx context.Context, confID uuid.UUID, value interface{}) {
	if err := c.svc.Set(ctx, conferenceBookingsKey(confID), value, c.ttl); err != nil {
		c.log.ErrorWithContext(ctx, "failed to cache conference bookings", err, nil)
	}
}

// InvalidateBooking implements bookings.Cache.
func (c *BookingCache) InvalidateBooking(ctx context.Context, bookingID uuid.UUID) {
	if err := c.svc.Delete(ctx, bookingKey(bookingID)); err != nil {
		c.log.ErrorWithContext(ctx, "failed to invalidate booking cache", err, nil)
	}
}

// InvalidateConference implements bookings.Cache.
func (c *BookingCache) InvalidateConference(ctx context.Context, confID uuid.UUID) {
	if err := c.svc.Delete(ctx, conferenceBookingsKey(confID)); err != nil {
		c.log.ErrorWithContext(ctx, "failed to invalidate conference-bookings cache", err, nil)
	}
}
