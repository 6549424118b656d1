package models

import "testing"

func TestIsMutationBlocked(t *testing.T) {
	if IsMutationBlocked(StatusActive) {
		t.Error("Expected active lifecycle to allow mutation")
	}

	for _, status := range []LifecycleStatus{StatusDeathReported, StatusConsentGathering, StatusOpened} {
		if !IsMutationBlocked(status) {
			t.Errorf("Expected status %q to block mutation", status)
		}
	}
}

func TestIsDeceased(t *testing.T) {
	active := &Lifecycle{Status: StatusActive}
	if active.IsDeceased() {
		t.Error("Expected active creator to not be deceased")
	}

	reported := &Lifecycle{Status: StatusDeathReported}
	if !reported.IsDeceased() {
		t.Error("Expected death_reported creator to be deceased")
	}
}

func TestIsDeletionVoteRunning(t *testing.T) {
	gathering := DeletionStatusConsentGathering

	opened := &Lifecycle{Status: StatusOpened}
	if opened.IsDeletionVoteRunning() {
		t.Error("Expected opened lifecycle without sub-state to have no running vote")
	}

	running := &Lifecycle{Status: StatusOpened, DeletionStatus: &gathering}
	if !running.IsDeletionVoteRunning() {
		t.Error("Expected deletion sub-state to report a running vote")
	}

	// The sub-state is only meaningful while opened
	stale := &Lifecycle{Status: StatusDeathReported, DeletionStatus: &gathering}
	if stale.IsDeletionVoteRunning() {
		t.Error("Expected deletion vote to require opened status")
	}
}
