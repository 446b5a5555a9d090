package billing

import "testing"

func TestCalculatePlanPrice(t *testing.T) {
	cases := []struct {
		name      string
		plan      string
		users     int
		annual    bool
		nonprofit bool
		want      int64
	}{
		{"starter monthly", PlanStarter, 3, false, false, 4900},
		{"starter annual", PlanStarter, 3, true, false, 49900},
		{"growth monthly", PlanGrowth, 10, false, false, 9900},
		{"enterprise at minimum", PlanEnterprise, 16, false, false, 14900},
		{"enterprise overage monthly", PlanEnterprise, 20, false, false, 14900 + 4*500},
		{"enterprise overage annual", PlanEnterprise, 20, true, false, 159900 + 4*5400},
		{"nonprofit discount", PlanStarter, 3, false, true, 3920},
		{"plan id case insensitive", "STARTER", 3, false, false, 4900},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculatePlanPrice(tc.plan, tc.users, tc.annual, tc.nonprofit)
			if err != nil {
				t.Fatalf("CalculatePlanPrice: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculatePlanPriceUnknownPlan(t *testing.T) {
	if _, err := CalculatePlanPrice("platinum", 1, false, false); err == nil {
		t.Error("unknown plan: want error")
	}
}

func TestPlanByUserCount(t *testing.T) {
	cases := []struct {
		users int
		want  string
	}{
		{1, PlanStarter}, {5, PlanStarter},
		{6, PlanGrowth}, {15, PlanGrowth},
		{16, PlanEnterprise}, {100, PlanEnterprise},
	}
	for _, tc := range cases {
		if got := PlanByUserCount(tc.users); got.ID != tc.want {
			t.Errorf("PlanByUserCount(%d) = %s, want %s", tc.users, got.ID, tc.want)
		}
	}
}

func TestSuggestedDowngrade(t *testing.T) {
	if got := SuggestedDowngrade(PlanGrowth, 4); got != PlanStarter {
		t.Errorf("growth with 4 users: got %q, want starter", got)
	}
	if got := SuggestedDowngrade(PlanEnterprise, 12); got != PlanGrowth {
		t.Errorf("enterprise with 12 users: got %q, want growth", got)
	}
	if got := SuggestedDowngrade(PlanStarter, 2); got != "" {
		t.Errorf("starter never downgrades, got %q", got)
	}
	if got := SuggestedDowngrade(PlanGrowth, 10); got != "" {
		t.Errorf("growth at 10 users fits, got %q", got)
	}
}

func TestCheckUsage(t *testing.T) {
	if w := CheckUsage(PlanGrowth, 11); w != nil {
		t.Errorf("11 users: unexpected warning %+v", w)
	}
	if w := CheckUsage(PlanGrowth, 12); w == nil || w.Severity != "medium" {
		t.Errorf("12 users: got %+v, want medium warning", w)
	}
	if w := CheckUsage(PlanGrowth, 14); w == nil || w.Severity != "high" {
		t.Errorf("14 users: got %+v, want high warning", w)
	}
	if w := CheckUsage(PlanStarter, 5); w != nil {
		t.Errorf("starter: unexpected warning %+v", w)
	}
}
