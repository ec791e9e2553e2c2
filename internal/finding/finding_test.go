package finding

import "testing"

func TestPassed(t *testing.T) {
	clean := []Finding{
		{Severity: SeverityInfo, Category: CategoryStructureCount},
		{Severity: SeverityWarning, Category: CategoryTagVersion},
	}
	if !Passed(clean) {
		t.Fatalf("warnings alone must not fail a scan")
	}

	failed := append(clean, Finding{Severity: SeverityError, Category: CategoryBitrate})
	if Passed(failed) {
		t.Fatalf("an error finding must fail the scan")
	}
	if Passed(nil) != true {
		t.Fatalf("empty sequence passes")
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	findings := []Finding{
		{Path: "a", Severity: SeverityError},
		{Path: "b", Severity: SeverityInfo},
		{Path: "c", Severity: SeverityError},
		{Path: "d", Severity: SeverityWarning},
	}
	info, warnings, errs := Partition(findings)
	if len(info) != 1 || info[0].Path != "b" {
		t.Fatalf("unexpected info partition: %+v", info)
	}
	if len(warnings) != 1 || warnings[0].Path != "d" {
		t.Fatalf("unexpected warning partition: %+v", warnings)
	}
	if len(errs) != 2 || errs[0].Path != "a" || errs[1].Path != "c" {
		t.Fatalf("unexpected error partition: %+v", errs)
	}
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity([]Finding{
		{Severity: SeverityError},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
	})
	if counts[SeverityError] != 2 || counts[SeverityWarning] != 1 || counts[SeverityInfo] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityError.String() != "error" || SeverityWarning.String() != "warning" || SeverityInfo.String() != "info" {
		t.Fatalf("unexpected severity strings")
	}
}
