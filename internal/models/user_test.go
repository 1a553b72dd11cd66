package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"service center role", RoleServiceCenter, true},
		{"customer role", RoleCustomer, true},
		{"invalid role", "mechanic", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	center := &User{Role: RoleServiceCenter}
	customer := &User{Role: RoleCustomer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, "manage_users", true},
		{"admin can review stock requests", admin, "review_stock_requests", true},
		{"admin can create booking", admin, "create_booking", true},

		{"service center cannot manage users", center, "manage_users", false},
		{"service center cannot review stock requests", center, "review_stock_requests", false},
		{"service center cannot create booking", center, "create_booking", false},
		{"service center can manage job cards", center, "manage_job_cards", true},
		{"service center can manage inventory", center, "manage_inventory", true},

		{"customer can create booking", customer, "create_booking", true},
		{"customer can pay invoice", customer, "pay_invoice", true},
		{"customer can create review", customer, "create_review", true},
		{"customer cannot manage job cards", customer, "manage_job_cards", false},
		{"customer cannot manage inventory", customer, "manage_inventory", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	now := time.Now()
	user := User{
		Username:     "quickfix",
		Email:        "desk@quickfix.example",
		PasswordHash: "$2a$10$secret",
		Role:         RoleServiceCenter,
		BusinessName: "Quick Fix Motors",
		IsActive:     true,
		LastLogin:    &now,
	}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") || strings.Contains(string(data), "password") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
	if !strings.Contains(string(data), `"business_name":"Quick Fix Motors"`) {
		t.Errorf("expected business_name in JSON, got %s", data)
	}
}
