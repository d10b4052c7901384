package core

import (
	"errors"
	"strings"
	"time"
)

const (
	BillActive  BillStatus = "active"
	BillSettled BillStatus = "settled"
)

type (
	BillStatus string

	// Bill is a shared expense split among named members. It settles the
	// moment every member is marked paid; settled is terminal.
	Bill struct {
		ID        int64
		OwnerID   int64
		Name      string
		Total     Money
		Status    BillStatus
		CreatedAt time.Time
		SettledAt *time.Time
	}

	// BillMember is one participant's share of a bill. UserID is zero for
	// members named by the owner who have no account of their own.
	BillMember struct {
		ID     int64
		BillID int64
		UserID int64
		Name   string
		Share  Money
		Paid   bool
		PaidAt *time.Time
	}
)

var (
	ErrBillSettled  = errors.New("bill is already settled")
	ErrNoBillMember = errors.New("bill has no members")
)

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	return b.Total.Validate()
}

func (m BillMember) Validate() error {
	if len(strings.TrimSpace(m.Name)) == 0 {
		return ErrEmptyName
	}
	return m.Share.Validate()
}

// AllPaid reports whether every member of the bill has paid. An empty
// member list never settles.
func AllPaid(members []BillMember) bool {
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !m.Paid {
			return false
		}
	}
	return true
}

// SplitEvenly divides total across n members, assigning the remainder
// satang one at a time from the first member so the shares always sum
// back to total.
func SplitEvenly(total Money, n int) ([]Money, error) {
	if n <= 0 {
		return nil, ErrNoBillMember
	}
	if err := total.Validate(); err != nil {
		return nil, err
	}
	base := total.Satang / int64(n)
	rem := total.Satang % int64(n)
	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money{Satang: base}
		if int64(i) < rem {
			shares[i].Satang++
		}
	}
	return shares, nil
}

// CanTogglePaid applies the bill trust model: a member's paid flag may
// only be changed by that member or by the bill's owner.
func (b Bill) CanTogglePaid(actorID int64, m BillMember) bool {
	return actorID == b.OwnerID || (m.UserID != 0 && actorID == m.UserID)
}
