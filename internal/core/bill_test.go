package core

import "testing"

func TestSplitEvenly(t *testing.T) {
	tests := []struct {
		name        string
		totalSatang int64
		members     int
		want        []int64
		wantErr     bool
	}{
		{"even split", 30000, 3, []int64{10000, 10000, 10000}, false},
		{"remainder goes to first members", 10000, 3, []int64{3334, 3333, 3333}, false},
		{"two-way odd satang", 101, 2, []int64{51, 50}, false},
		{"single member", 4200, 1, []int64{4200}, false},
		{"zero members", 100, 0, nil, true},
		{"zero total", 0, 2, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEvenly(Money{Satang: tt.totalSatang}, tt.members)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitEvenly() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var sum int64
			for i, s := range shares {
				sum += s.Satang
				if s.Satang != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, s.Satang, tt.want[i])
				}
			}
			if sum != tt.totalSatang {
				t.Errorf("shares sum to %d, want %d", sum, tt.totalSatang)
			}
		})
	}
}

func TestAllPaid(t *testing.T) {
	tests := []struct {
		name    string
		members []BillMember
		want    bool
	}{
		{"no members never settles", nil, false},
		{"one unpaid", []BillMember{{Paid: true}, {Paid: false}}, false},
		{"all paid", []BillMember{{Paid: true}, {Paid: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllPaid(tt.members); got != tt.want {
				t.Errorf("AllPaid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBillCanTogglePaid(t *testing.T) {
	bill := Bill{OwnerID: 1}
	member := BillMember{UserID: 2}
	guest := BillMember{UserID: 0, Name: "Nok"}

	tests := []struct {
		name    string
		actorID int64
		member  BillMember
		want    bool
	}{
		{"owner may toggle anyone", 1, member, true},
		{"member may toggle self", 2, member, true},
		{"stranger may not toggle", 3, member, false},
		{"owner may toggle guest", 1, guest, true},
		{"non-owner may not toggle guest", 2, guest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bill.CanTogglePaid(tt.actorID, tt.member); got != tt.want {
				t.Errorf("CanTogglePaid(%d) = %v, want %v", tt.actorID, got, tt.want)
			}
		})
	}
}
