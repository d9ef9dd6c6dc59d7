package status

import (
	"errors"
	"testing"

	"equipment-requests-api-server/internal/models"
)

const (
	p = models.ItemPending
	a = models.ItemApproved
	r = models.ItemRejected
)

func TestDerive(t *testing.T) {
	cases := []struct {
		name string
		in   []models.ItemStatus
		want models.RequestStatus
	}{
		{"all approved", []models.ItemStatus{a, a}, models.RequestApproved},
		{"all rejected", []models.ItemStatus{r, r}, models.RequestRejected},
		{"approved and rejected", []models.ItemStatus{a, r}, models.RequestPartiallyApproved},
		{"pending and approved", []models.ItemStatus{p, a}, models.RequestPartiallyApproved},
		{"single approved", []models.ItemStatus{a}, models.RequestApproved},
		{"single rejected", []models.ItemStatus{r}, models.RequestRejected},
		{"single pending", []models.ItemStatus{p}, models.RequestPartiallyApproved},
		{"all pending", []models.ItemStatus{p, p, p}, models.RequestPartiallyApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Derive(tc.in)
			if err != nil {
				t.Fatalf("Derive(%v): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Derive(%v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeriveEmpty(t *testing.T) {
	if _, err := Derive(nil); !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}
	if _, err := DeriveFromItems([]models.Item{}); !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems from DeriveFromItems, got %v", err)
	}
}

func TestDeriveOrderIndependent(t *testing.T) {
	inputs := [][]models.ItemStatus{
		{a, r, p},
		{a, a, r},
		{r, r, a, p},
		{p, a, a, a},
		{a, a, a},
	}
	for _, in := range inputs {
		want, err := Derive(in)
		if err != nil {
			t.Fatal(err)
		}
		for _, perm := range permutations(in) {
			got, err := Derive(perm)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("Derive(%v) = %s, but Derive(%v) = %s", perm, got, in, want)
			}
		}
	}
}

func TestDeriveFromItems(t *testing.T) {
	items := []models.Item{{ID: 1, Status: a}, {ID: 2, Status: a}}
	got, err := DeriveFromItems(items)
	if err != nil || got != models.RequestApproved {
		t.Fatalf("DeriveFromItems = %s, %v", got, err)
	}
}

func permutations(in []models.ItemStatus) [][]models.ItemStatus {
	if len(in) <= 1 {
		return [][]models.ItemStatus{append([]models.ItemStatus(nil), in...)}
	}
	var out [][]models.ItemStatus
	for i := range in {
		rest := make([]models.ItemStatus, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, tail := range permutations(rest) {
			out = append(out, append([]models.ItemStatus{in[i]}, tail...))
		}
	}
	return out
}
