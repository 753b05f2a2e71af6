package main

import (
	"strings"
	"testing"
)

const sampleCSV = "\ufeffinstagram_handle,full_name,bio,follower_count,following_count,post_count,website,is_business_account,business_category,is_verified,likely_us,score,scraped_at\n" +
	"@Coach.Jo,Jo Smith,\"Online coach, NYC\",\"12,500\",300,210,https://jo.fit,True,Fitness Trainer,False,True,8,2026-03-01T10:00:00\n" +
	"fit.sam,Sam,,4000,100,50,,False,,False,False,5,\n" +
	",Nobody,,1,1,1,,False,,False,True,1,\n" +
	"yoga.lee,Lee,,abc,1,1,,False,,False,True,1,\n" +
	"coach.jo,Jo S,,13000,300,215,,True,,False,True,9,\n"

func TestParseLeadCSVSkipsNonUSByDefault(t *testing.T) {
	res, err := parseLeadCSV(strings.NewReader(sampleCSV), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(res.rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(res.rows), res.rows)
	}
	if res.notUS != 1 {
		t.Fatalf("expected 1 non-US row, got %d", res.notUS)
	}
	if len(res.invalid) != 2 || res.invalid[0].line != 4 || res.invalid[1].line != 5 {
		t.Fatalf("unexpected invalid rows %+v", res.invalid)
	}

	jo := res.rows[0]
	if jo.InstagramHandle != "coach.jo" || jo.FullName != "Jo S" || jo.Score != 9 || jo.FollowerCount != 13000 {
		t.Fatalf("duplicate handle should keep the last row, got %+v", jo)
	}
	if !jo.IsBusinessAccount || jo.IsVerified || !jo.LikelyUS {
		t.Fatalf("unexpected flags %+v", jo)
	}
}

func TestParseLeadCSVAll(t *testing.T) {
	res, err := parseLeadCSV(strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.rows) != 2 || res.notUS != 0 {
		t.Fatalf("expected both valid rows, got %d rows, %d non-US", len(res.rows), res.notUS)
	}
}

func TestParseLeadCSVCleansText(t *testing.T) {
	in := "instagram_handle,full_name,bio,likely_us\n" +
		"ana.b,\"  Ana \t Bélanger \",\"<b>Pilates</b> &amp; barre\nMontréal\",True\n"
	res, err := parseLeadCSV(strings.NewReader(in), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", res)
	}
	row := res.rows[0]
	if row.FullName != "Ana Bélanger" {
		t.Fatalf("unexpected name %q", row.FullName)
	}
	if row.Bio != "Pilates & barre\nMontréal" {
		t.Fatalf("unexpected bio %q", row.Bio)
	}
}

func TestParseLeadCSVHeaderErrors(t *testing.T) {
	if _, err := parseLeadCSV(strings.NewReader(""), false); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := parseLeadCSV(strings.NewReader("handle,score\nx,1\n"), false); err == nil {
		t.Fatal("expected error for missing instagram_handle column")
	}
}

func TestParseHelpers(t *testing.T) {
	if n, err := parseInt("1,234"); err != nil || n != 1234 {
		t.Fatalf("parseInt = %d, %v", n, err)
	}
	if n, err := parseInt("7.0"); err != nil || n != 7 {
		t.Fatalf("parseInt float = %d, %v", n, err)
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Fatal("expected error for unknown boolean")
	}
}
