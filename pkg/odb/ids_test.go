package odb_test

import (
	"testing"

	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

func TestIDStringForms(t *testing.T) {
	if got := odb.ProgramID(7).String(); got != "p-7" {
		t.Fatalf("program id: got %q", got)
	}
	if got := odb.TargetID(1).String(); got != "t-1" {
		t.Fatalf("target id: got %q", got)
	}
	if got := odb.AsterismID(42).String(); got != "a-42" {
		t.Fatalf("asterism id: got %q", got)
	}
	if got := odb.ObservationID(9).String(); got != "o-9" {
		t.Fatalf("observation id: got %q", got)
	}
}

func TestParseIDRoundtrip(t *testing.T) {
	pid, err := odb.ParseProgramID(odb.ProgramID(12).String())
	if err != nil || pid != 12 {
		t.Fatalf("program roundtrip: %v %v", pid, err)
	}
	tid, err := odb.ParseTargetID("t-3")
	if err != nil || tid != 3 {
		t.Fatalf("target roundtrip: %v %v", tid, err)
	}
	aid, err := odb.ParseAsterismID("a-8")
	if err != nil || aid != 8 {
		t.Fatalf("asterism roundtrip: %v %v", aid, err)
	}
	oid, err := odb.ParseObservationID("o-100")
	if err != nil || oid != 100 {
		t.Fatalf("observation roundtrip: %v %v", oid, err)
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	bad := []string{"", "p", "p-", "p-0", "p--1", "p-abc", "t-5", "P-1", "p-1 "}
	for _, s := range bad {
		if _, err := odb.ParseProgramID(s); err == nil {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
