package account_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/orgmanager/internal/account"
	"github.com/jacentio/orgmanager/internal/store"
	"github.com/jacentio/orgmanager/internal/store/storetest"
)

func newDAO() *account.DAO {
	return account.NewDAO(store.New(storetest.New(), store.DefaultConfig()))
}

func testAccount(name, ouID, accountID string, regions ...string) account.Account {
	return account.Account{
		Name:                 name,
		AccountID:            accountID,
		Email:                name + "@example.com",
		SSOEmail:             "sso-" + name + "@example.com",
		SSOFirstName:         "Dev",
		SSOLastName:          "Team",
		OrganizationalUnitID: ouID,
		Regions:              regions,
		Status:               account.StatusActive,
	}
}

func TestSaveNewAndGetByName(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	a := testAccount("payments", "ou-1", "111122223333", "us-west-2")
	if err := dao.SaveNew(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := dao.GetByName(ctx, "payments")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "payments" {
		t.Errorf("expected name 'payments', got %q", got.Name)
	}
	if got.OrganizationalUnitID != "ou-1" {
		t.Errorf("expected unit 'ou-1', got %q", got.OrganizationalUnitID)
	}
	if got.AccountID != "111122223333" {
		t.Errorf("expected account id '111122223333', got %q", got.AccountID)
	}
}

func TestSaveNewDuplicate(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	a := testAccount("payments", "ou-1", "111122223333", "us-west-2")
	if err := dao.SaveNew(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.SaveNew(ctx, a); !errors.Is(err, account.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetByNameNotFound(t *testing.T) {
	dao := newDAO()

	_, err := dao.GetByName(context.Background(), "missing")
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	if err := dao.SaveNew(ctx, testAccount("payments", "ou-1", "111122223333", "us-west-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := dao.GetByID(ctx, "111122223333")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected account, got nil")
	}
	if got.Name != "payments" {
		t.Errorf("expected name 'payments', got %q", got.Name)
	}

	absent, err := dao.GetByID(ctx, "999999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if absent != nil {
		t.Errorf("expected nil for unknown id, got %+v", absent)
	}
}

func TestGetByIDIgnoresMappingRows(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	// Mapping rows reference the account id in their key but must not
	// surface through the account-id lookup.
	if err := dao.SaveNew(ctx, testAccount("payments", "ou-1", "111122223333", "us-west-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", []string{"us-west-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := dao.GetByID(ctx, "111122223333")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != "payments" {
		t.Fatalf("expected account 'payments', got %+v", got)
	}
}

func TestListByUnitPaginationCompleteness(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	names := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i, name := range names {
		a := testAccount(name, "ou-1", fmt.Sprintf("11112222%04d", i), "us-west-2")
		if err := dao.SaveNew(ctx, a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// An account in another unit must not leak into the listing.
	if err := dao.SaveNew(ctx, testAccount("foxtrot", "ou-2", "999922220000", "us-west-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var paged []string
	var cursor *account.Cursor
	pages := 0
	for {
		accounts, next, err := dao.ListByUnit(ctx, "ou-1", 2, cursor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, a := range accounts {
			paged = append(paged, a.Name)
		}
		pages++
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
		if next == nil {
			break
		}
		cursor = next
	}

	all, next, err := dao.ListByUnit(ctx, "ou-1", 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil cursor on full listing, got %+v", next)
	}

	var full []string
	for _, a := range all {
		full = append(full, a.Name)
	}
	sort.Strings(paged)
	sort.Strings(full)
	if diff := cmp.Diff(full, paged); diff != "" {
		t.Errorf("paged listing differs from full listing (-full +paged):\n%s", diff)
	}
	if len(paged) != len(names) {
		t.Errorf("expected %d accounts, got %d", len(names), len(paged))
	}
}

func TestHasAccounts(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	has, err := dao.HasAccounts(ctx, "ou-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Error("expected no accounts in empty unit")
	}

	if err := dao.SaveNew(ctx, testAccount("payments", "ou-1", "111122223333", "us-west-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	has, err = dao.HasAccounts(ctx, "ou-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Error("expected accounts to be found")
	}
}

func TestUpdateStatus(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	a := testAccount("payments", "ou-1", "", "us-west-2")
	a.Status = account.StatusCreating
	if err := dao.SaveNew(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := dao.UpdateStatus(ctx, "payments", "ou-1", account.StatusActive, "111122223333"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := dao.GetByName(ctx, "payments")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != account.StatusActive {
		t.Errorf("expected status ACTIVE, got %q", got.Status)
	}
	if got.AccountID != "111122223333" {
		t.Errorf("expected account id to be recorded, got %q", got.AccountID)
	}
}

func TestUpdateStatusMissingAccount(t *testing.T) {
	dao := newDAO()

	err := dao.UpdateStatus(context.Background(), "missing", "ou-1", account.StatusActive, "")
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func regionSet(t *testing.T, dao *account.DAO, ouID, accountID string) []string {
	t.Helper()
	rows, err := dao.RegionRows(context.Background(), ouID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var regions []string
	for _, row := range rows {
		if row.AccountID == accountID {
			regions = append(regions, row.Region)
		}
	}
	sort.Strings(regions)
	return regions
}

func TestRebuildRegionMappingReplacesOldRows(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", []string{"eu-west-1", "us-west-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", []string{"ap-southeast-1", "us-west-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := regionSet(t, dao, "ou-1", "111122223333")
	expected := []string{"ap-southeast-1", "us-west-2"}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mapping mismatch (-expected +got):\n%s", diff)
	}
}

func TestRebuildRegionMappingLeavesOtherAccounts(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", []string{"us-west-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.RebuildRegionMapping(ctx, "ou-1", "444455556666", []string{"us-west-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", []string{"eu-west-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := regionSet(t, dao, "ou-1", "444455556666"); len(got) != 1 || got[0] != "us-west-2" {
		t.Errorf("expected other account's mapping untouched, got %v", got)
	}
}

func TestDeleteWithMapping(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	a := testAccount("payments", "ou-1", "111122223333", "us-west-2", "eu-west-1")
	if err := dao.SaveNew(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dao.RebuildRegionMapping(ctx, "ou-1", "111122223333", a.Regions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := dao.DeleteWithMapping(ctx, &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := dao.GetByName(ctx, "payments"); !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if got := regionSet(t, dao, "ou-1", "111122223333"); len(got) != 0 {
		t.Errorf("expected mapping rows removed, got %v", got)
	}
}

func TestComponentStatusRoundTrip(t *testing.T) {
	dao := newDAO()
	ctx := context.Background()

	rows := []account.ComponentStatusRow{
		{AccountID: "111122223333", Region: "us-west-2", Component: "vpc", Status: account.ComponentCreated},
		{AccountID: "111122223333", Region: "eu-west-1", Component: "vpc", Status: account.ComponentFailed},
	}
	for _, row := range rows {
		if err := dao.UpsertComponentStatus(ctx, row); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Upsert replaces the prior observation for the same key.
	if err := dao.UpsertComponentStatus(ctx, account.ComponentStatusRow{
		AccountID: "111122223333", Region: "eu-west-1", Component: "vpc", Status: account.ComponentCreated,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := dao.ComponentStatuses(ctx, "111122223333")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for _, row := range got {
		if row.Status != account.ComponentCreated {
			t.Errorf("expected CREATED for %s/%s, got %q", row.Region, row.Component, row.Status)
		}
	}
}
