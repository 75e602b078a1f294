package timeline

import (
	"reflect"
	"testing"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

func TestProject_Cancelled(t *testing.T) {
	for _, raw := range []string{"cancelled", "CANCELLED", " Cancelled "} {
		steps := Project(raw)
		if len(steps) != 2 {
			t.Fatalf("Project(%q) returned %d steps, want 2", raw, len(steps))
		}
		if steps[0].Key != model.OrderStatusPending || !steps[0].Completed || steps[0].Active {
			t.Fatalf("unexpected first step: %+v", steps[0])
		}
		last := steps[1]
		if last.Key != model.OrderStatusCancelled || !last.Cancelled || !last.Active || !last.Completed {
			t.Fatalf("unexpected cancelled step: %+v", last)
		}
	}
}

func TestProject_LinearStatuses(t *testing.T) {
	tests := []struct {
		status        string
		wantCompleted []bool
		wantActive    int
	}{
		{status: "pending", wantCompleted: []bool{true, false, false, false}, wantActive: 0},
		{status: "Confirmed", wantCompleted: []bool{true, true, false, false}, wantActive: 1},
		{status: "SHIPPED", wantCompleted: []bool{true, true, true, false}, wantActive: 2},
		{status: "delivered", wantCompleted: []bool{true, true, true, true}, wantActive: 3},
		{status: "unknown-garbage", wantCompleted: []bool{false, false, false, false}, wantActive: -1},
		{status: "", wantCompleted: []bool{false, false, false, false}, wantActive: -1},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			steps := Project(tt.status)
			if len(steps) != 4 {
				t.Fatalf("got %d steps, want 4", len(steps))
			}

			for i, s := range steps {
				if s.Key != canonicalOrder[i] {
					t.Fatalf("step %d key = %s, want %s", i, s.Key, canonicalOrder[i])
				}
				if s.Completed != tt.wantCompleted[i] {
					t.Fatalf("step %d completed = %v, want %v", i, s.Completed, tt.wantCompleted[i])
				}
				if s.Active != (i == tt.wantActive) {
					t.Fatalf("step %d active = %v", i, s.Active)
				}
				if s.Cancelled {
					t.Fatalf("step %d must not be cancelled", i)
				}
			}
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	for _, raw := range []string{"pending", "shipped", "cancelled", "???"} {
		if !reflect.DeepEqual(Project(raw), Project(raw)) {
			t.Fatalf("Project(%q) is not deterministic", raw)
		}
	}
}
