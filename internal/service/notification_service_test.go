package service

import (
	"context"
	"net/http"
	"testing"
)

func TestMarkAllRead(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.placeOrder(t)
	h.placeOrder(t)

	list, unread, err := h.notificationSvc.List(ctx, h.dealer, true, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || unread != 2 {
		t.Fatalf("unread list = %d, count = %d, want 2 and 2", len(list), unread)
	}

	n, err := h.notificationSvc.MarkAllRead(ctx, h.dealer)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 2 {
		t.Errorf("first MarkAllRead = %d, want 2", n)
	}

	n, err = h.notificationSvc.MarkAllRead(ctx, h.dealer)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkAllRead = %d, want 0", n)
	}

	all, unread, _ := h.notificationSvc.List(ctx, h.dealer, false, 0, 0)
	if len(all) != 2 || unread != 0 {
		t.Errorf("all = %d, unread = %d, want 2 and 0", len(all), unread)
	}
}

func TestMarkReadChecksTenant(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.placeOrder(t)

	list, _, _ := h.notificationSvc.List(ctx, h.dealer, false, 0, 0)
	if len(list) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list))
	}

	_, err := h.notificationSvc.MarkRead(ctx, h.rival, list[0].ID)
	assertStatus(t, err, http.StatusNotFound)

	n, err := h.notificationSvc.MarkRead(ctx, h.dealer, list[0].ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !n.IsRead {
		t.Error("notification not marked read")
	}

	_, _, err = h.notificationSvc.List(ctx, h.admin, false, 0, 0)
	assertStatus(t, err, http.StatusForbidden)
}
