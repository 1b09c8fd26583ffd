package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFoundedYear(t *testing.T) {
	year, ok := FoundedYear("Founded: 2015 Employees: 50")
	require.True(t, ok)
	require.Equal(t, 2015, year)

	year, ok = FoundedYear("Established 1998")
	require.True(t, ok)
	require.Equal(t, 1998, year)

	_, ok = FoundedYear("Founded: 1899")
	require.False(t, ok)

	_, ok = FoundedYear(fmt.Sprintf("Founded: %d", time.Now().Year()+2))
	require.False(t, ok)

	year, ok = FoundedYear("Founded in 2001")
	require.True(t, ok)
	require.Equal(t, 2001, year)

	_, ok = FoundedYear("a company with no dates")
	require.False(t, ok)
}

func TestEmployeeCount(t *testing.T) {
	count, ok := EmployeeCount("Employees: 50-100")
	require.True(t, ok)
	require.Equal(t, 75, count)

	count, ok = EmployeeCount("Employees: 99")
	require.True(t, ok)
	require.Equal(t, 99, count)

	count, ok = EmployeeCount("Team size: 10-15")
	require.True(t, ok)
	require.Equal(t, 12, count)

	count, ok = EmployeeCount("1,200 employees worldwide")
	require.True(t, ok)
	require.Equal(t, 1200, count)

	_, ok = EmployeeCount("no headcount here")
	require.False(t, ok)
}

func TestExpandAmount(t *testing.T) {
	for _, tt := range []struct {
		num, unit string
		want      float64
	}{
		{"1.5", "M", 1_500_000},
		{"2", "B", 2_000_000_000},
		{"750", "K", 750_000},
		{"500", "", 500},
		{"1,250", "K", 1_250_000},
	} {
		got, err := ExpandAmount(tt.num, tt.unit)
		require.NoError(t, err)
		require.Equal(t, tt.want, got, tt.num+tt.unit)
	}

	_, err := ExpandAmount("abc", "M")
	require.Error(t, err)
	_, err = ExpandAmount("5", "X")
	require.Error(t, err)
}

func TestFundingTotal(t *testing.T) {
	total, ok := FundingTotal("Total raised: $1.5M to date")
	require.True(t, ok)
	require.Equal(t, 1_500_000.0, total)

	total, ok = FundingTotal("Total Funding $2B")
	require.True(t, ok)
	require.Equal(t, 2_000_000_000.0, total)

	total, ok = FundingTotal("the company raised $750K in seed funding")
	require.True(t, ok)
	require.Equal(t, 750_000.0, total)

	_, ok = FundingTotal("no money mentioned")
	require.False(t, ok)
}

func TestLocation(t *testing.T) {
	location, ok := Location("Location: Budapest, Hungary Employees: 50")
	require.True(t, ok)
	require.Equal(t, "Budapest, Hungary", location)

	location, ok = Location("the company is headquartered in Berlin, Germany")
	require.True(t, ok)
	require.Equal(t, "Berlin, Germany", location)

	_, ok = Location("Location: X")
	require.False(t, ok)
}

func TestFundingStage(t *testing.T) {
	stage, ok := FundingStage("Stage: Series C Total Funding: $94M")
	require.True(t, ok)
	require.Equal(t, "Series C", stage)

	stage, ok = FundingStage("this is a Seed stage company")
	require.True(t, ok)
	require.Equal(t, "Seed", stage)

	_, ok = FundingStage("nothing about funding here")
	require.False(t, ok)
}

func TestCategories(t *testing.T) {
	got := Categories("Categories: FinTech, Fraud Prevention; Identity Location: London")
	require.Equal(t, []string{"FinTech", "Fraud Prevention", "Identity"}, got)

	// glued PascalCase with an acronym
	got = Categories("Tags: AMLCompliance")
	require.Equal(t, []string{"AML", "Compliance"}, got)

	// case-insensitive dedupe keeps the first casing
	got = Categories("Industry: Payments, payments, Security")
	require.Equal(t, []string{"Payments", "Security"}, got)

	require.Nil(t, Categories("nothing labeled on this page"))
}

func TestRegisteredAddress(t *testing.T) {
	text := "Its registered address is 1 Bakers Yard, Bakers Row, London, EC1R 3DD. Its corporate identification number is 12345."
	address, ok := RegisteredAddress(text)
	require.True(t, ok)
	require.Equal(t, "1 Bakers Yard, Bakers Row, London, EC1R 3DD", address)

	// labeled form with a postal code running into the next sentence
	text = "Registered Address: Kacsa utca 15-23, Budapest 101525 The company operates globally"
	address, ok = RegisteredAddress(text)
	require.True(t, ok)
	require.Equal(t, "Kacsa utca 15-23, Budapest 101525", address)

	_, ok = RegisteredAddress("Registered Address: too short")
	require.False(t, ok)
}

func TestFundingRounds(t *testing.T) {
	text := "Funding Rounds\n" +
		"Sep 16, 2025 | $80M | Series C\n" +
		"Jan 05, 2022 | $12M | Series A\n" +
		"Sep 16, 2025 | $80M | Series C\n"
	got := FundingRounds(text)
	want := []FundingRound{
		{Date: "Sep 16, 2025", Amount: 80_000_000, Stage: "Series C"},
		{Date: "Jan 05, 2022", Amount: 12_000_000, Stage: "Series A"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rounds mismatch (-want +got):\n%s", diff)
	}
}

func TestInvestors(t *testing.T) {
	got := Investors("Investors: Creandum, IVP and Citi Ventures")
	require.Equal(t, []string{"Creandum", "IVP", "Citi Ventures"}, got)

	require.Nil(t, Investors("no backers listed"))
}

func TestPressMentions(t *testing.T) {
	text := "Company Profile\n" +
		"Mentions in press and media\n" +
		"Date Title Description\n" +
		"15.03.2024 Acme raises $50M  The round was led by IVP with participation from existing investors.\n" +
		"02.01.2024 Acme expands into fraud detection. Analysts expect the market to grow.\n" +
		"Investors\n" +
		"01.01.2024 this line is past the section and must be ignored\n"

	mentions := PressMentions(text)
	require.Len(t, mentions, 2)

	require.Equal(t, "Acme raises $50M", mentions[0].Title)
	require.Equal(t, "The round was led by IVP with participation from existing investors.", mentions[0].Content)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), mentions[0].Date)

	require.Equal(t, "Acme expands into fraud detection.", mentions[1].Title)
	require.Equal(t, "Analysts expect the market to grow.", mentions[1].Content)

	require.Nil(t, PressMentions("no press section here"))
}

func TestMentionDate(t *testing.T) {
	date, ok := MentionDate("09.12.2025")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC), date)

	date, ok = MentionDate("December 09, 2025 06:01 ET")
	require.True(t, ok)
	require.Equal(t, 2025, date.Year())

	date, ok = MentionDate("2024-06-30")
	require.True(t, ok)
	require.Equal(t, time.June, date.Month())

	_, ok = MentionDate("not a date")
	require.False(t, ok)
}
