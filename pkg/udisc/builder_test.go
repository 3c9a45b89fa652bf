package udisc

import (
	"errors"
	"testing"
)

func TestBuilder_DuplicateHostKind(t *testing.T) {
	_, err := New("server").
		Host("hello", 4112).
		Host("hello", 5000).
		WithTransport(newMemHub().transport()).
		Build()

	if !errors.Is(err, ErrDuplicateService) {
		t.Fatalf("expected ErrDuplicateService, got %v", err)
	}
}

func TestBuilder_DuplicateHostPort(t *testing.T) {
	_, err := New("server").
		Host("hello", 4112).
		Host("world", 4112).
		WithTransport(newMemHub().transport()).
		Build()

	if !errors.Is(err, ErrDuplicateService) {
		t.Fatalf("expected ErrDuplicateService, got %v", err)
	}
}

func TestBuilder_ZeroPort(t *testing.T) {
	_, err := New("server").
		Host("hello", 0).
		WithTransport(newMemHub().transport()).
		Build()

	if err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestBuilder_RepeatedSearchAllowed(t *testing.T) {
	ep, err := New("client").
		Search("hello").
		Search("hello").
		Addr("192.168.1.20").
		WithTransport(newMemHub().transport()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ep.Close()
}

func TestBuilder_IdentitySnapshot(t *testing.T) {
	ep, err := New("server").
		Host("hello", 4112).
		Search("world").
		Addr("10.1.2.3").
		WithTransport(newMemHub().transport()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer ep.Close()

	id := ep.Identity()
	if id.Name != "server" || id.Addr != "10.1.2.3" {
		t.Errorf("unexpected identity: %+v", id)
	}
	if len(id.Services) != 2 {
		t.Errorf("expected 2 services, got %d", len(id.Services))
	}
}

func TestBuilder_DefaultName(t *testing.T) {
	ep, err := New("").
		Search("hello").
		Addr("10.1.2.3").
		WithTransport(newMemHub().transport()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer ep.Close()

	if ep.Identity().Name == "" {
		t.Error("expected a hostname-derived default name")
	}
}
