package handler

import (
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
)

func TestCateringCheck(t *testing.T) {
	const maxHeadcount = 200
	const minLeadHours = 48

	tests := []struct {
		name        string
		headcount   int
		leadHours   float64
		wantAllowed bool
		wantReason  string // substring match, empty means allowed
	}{
		{"within limits", 150, 72, true, ""},
		{"exactly at headcount limit", 200, 72, true, ""},
		{"headcount over limit", 201, 72, false, "headcount"},
		{"exactly at lead time limit", 100, 48, true, ""},
		{"lead time too short", 100, 47.5, false, "lead time"},
		{"event already started", 100, -1, false, "lead time"},
		{"headcount checked before lead time", 500, 1, false, "headcount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := cateringCheck(tt.headcount, maxHeadcount, tt.leadHours, minLeadHours)
			if !st.Requested {
				t.Error("cateringCheck must mark the component as requested")
			}
			if st.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", st.Allowed, tt.wantAllowed)
			}
			if tt.wantAllowed && st.Reason != "" {
				t.Errorf("allowed catering should carry no reason, got %q", st.Reason)
			}
			if !tt.wantAllowed && !strings.Contains(st.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to mention %q", st.Reason, tt.wantReason)
			}
		})
	}
}

func TestPackageReportBody(t *testing.T) {
	t.Run("clean report omits alternatives", func(t *testing.T) {
		rep := &packageReport{
			AllAvailable: true,
			Hall:         hallStatus{HallID: 7, Available: true},
			Rooms: []roomStatus{
				{RoomType: "doble", Requested: 2, Available: 4, Sufficient: true},
			},
		}
		body := rep.body()
		if body["all_available"] != true {
			t.Errorf("all_available = %v, want true", body["all_available"])
		}
		if _, ok := body["alternatives"]; ok {
			t.Error("clean report must not suggest alternatives")
		}
		if _, ok := body["catering"]; ok {
			t.Error("catering key must be absent when catering was not requested")
		}
	})

	t.Run("failed report carries alternatives and conflict detail", func(t *testing.T) {
		rep := &packageReport{
			AllAvailable: false,
			Hall: hallStatus{
				HallID:    7,
				Available: false,
				Conflicts: []repository.Conflict{{Code: "RES-20240101-0001"}},
			},
			Rooms: []roomStatus{
				{RoomType: "suite", Requested: 3, Available: 2, Sufficient: false},
			},
			Catering: &cateringStatus{Requested: true, Allowed: true},
			AltHalls: []model.Hall{{ID: 9, Name: "Salon B", Capacity: 120, PriceCentsPerDay: 500000}},
			AltRoomTypes: []repository.RoomTypeCount{
				{RoomType: "sencilla", Total: 10, FreeUnits: 8},
			},
		}
		body := rep.body()
		if body["all_available"] != false {
			t.Errorf("all_available = %v, want false", body["all_available"])
		}
		if _, ok := body["catering"]; !ok {
			t.Error("requested catering must appear in the report")
		}
		alts, ok := body["alternatives"].(echo.Map)
		if !ok {
			t.Fatalf("alternatives missing or wrong type: %T", body["alternatives"])
		}
		if _, ok := alts["halls"]; !ok {
			t.Error("alternatives must list other halls")
		}
		if _, ok := alts["room_types"]; !ok {
			t.Error("alternatives must list room types with surplus")
		}
	})
}
