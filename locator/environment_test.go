// environment_test.go: tests for naming environments
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import "testing"

func TestEnvironment_Constructors(t *testing.T) {
	tests := []struct {
		name    string
		env     Environment
		want    Environment
		wantKey string
	}{
		{
			name:    "host",
			env:     HostEnvironment(" naming.local ", "1099"),
			want:    Environment{Factory: DefaultFactory, PkgPrefixes: DefaultPkgPrefixes, ProviderURL: "naming.local:1099"},
			wantKey: "memory:reftable.locator:reftable.naming:naming.local:1099",
		},
		{
			name:    "factory",
			env:     FactoryEnvironment("ldap ", "dir", "389"),
			want:    Environment{Factory: "ldap", ProviderURL: "dir:389"},
			wantKey: "ldap::dir:389",
		},
		{
			name:    "prefix",
			env:     PrefixEnvironment("ldap", " com.example ", "dir", "389"),
			want:    Environment{Factory: "ldap", PkgPrefixes: "com.example", ProviderURL: "dir:389"},
			wantKey: "ldap:com.example:dir:389",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != tt.want {
				t.Errorf("env = %+v, want %+v", tt.env, tt.want)
			}
			if got := tt.env.Key(); got != tt.wantKey {
				t.Errorf("Key() = %q, want %q", got, tt.wantKey)
			}
			if tt.env.String() != tt.wantKey {
				t.Errorf("String() = %q, want %q", tt.env.String(), tt.wantKey)
			}
		})
	}
}

func TestEnvironment_FactoryName(t *testing.T) {
	if got := (Environment{}).FactoryName(); got != DefaultFactory {
		t.Errorf("zero FactoryName() = %q, want %q", got, DefaultFactory)
	}
	if got := (Environment{Factory: "  "}).FactoryName(); got != DefaultFactory {
		t.Errorf("blank FactoryName() = %q, want %q", got, DefaultFactory)
	}
	if got := (Environment{Factory: " ldap "}).FactoryName(); got != "ldap" {
		t.Errorf("FactoryName() = %q, want ldap", got)
	}
}

func TestEnvironment_NormalizeAndZero(t *testing.T) {
	if !(Environment{}).IsZero() {
		t.Error("zero environment is not IsZero")
	}
	env := Environment{Factory: " a ", PkgPrefixes: "b ", ProviderURL: " c"}
	if env.IsZero() {
		t.Error("populated environment is IsZero")
	}
	if got := env.normalize(); got != (Environment{Factory: "a", PkgPrefixes: "b", ProviderURL: "c"}) {
		t.Errorf("normalize() = %+v", got)
	}
	if env.Key() != env.normalize().Key() {
		t.Error("Key() depends on surrounding whitespace")
	}
}

func TestCombineKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, ""},
		{[]string{"only"}, "only"},
		{[]string{"host", "1099"}, "host:1099"},
		{[]string{" host ", " 1099 "}, "host:1099"},
		{[]string{"", "", ""}, "::"},
	}
	for _, tt := range tests {
		if got := combineKey(tt.parts...); got != tt.want {
			t.Errorf("combineKey(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
