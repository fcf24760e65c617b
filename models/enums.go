package models

import "errors"

type UnlockMethod string

const (
	UnlockMethodFree         UnlockMethod = "Free"
	UnlockMethodKey          UnlockMethod = "Key"
	UnlockMethodKarma        UnlockMethod = "Karma"
	UnlockMethodSubscription UnlockMethod = "Subscription"
	UnlockMethodTimed        UnlockMethod = "Timed"
)

// IsPaid reports whether the method debits a reader balance. Only paid
// unlocks generate chapter-level spending events; subscription revenue is
// settled at the payment level.
func (m UnlockMethod) IsPaid() bool {
	return m == UnlockMethodKey || m == UnlockMethodKarma
}

// BalanceKind returns the wallet the method spends from, or an error for
// methods that do not spend.
func (m UnlockMethod) BalanceKind() (BalanceKind, error) {
	switch m {
	case UnlockMethodKey:
		return BalanceKindKey, nil
	case UnlockMethodKarma:
		return BalanceKindKarma, nil
	}
	return "", errors.New("unlock method does not spend a balance")
}

type GrantStatus string

const (
	GrantStatusPending   GrantStatus = "Pending"
	GrantStatusUnlocked  GrantStatus = "Unlocked"
	GrantStatusCancelled GrantStatus = "Cancelled"
)

type BalanceKind string

const (
	BalanceKindKey   BalanceKind = "Key"
	BalanceKindKarma BalanceKind = "Karma"
)

type SpendingSourceType string

const (
	SpendingSourceChapterUnlock SpendingSourceType = "ChapterUnlock"
	SpendingSourceSubscription  SpendingSourceType = "Subscription"
)

type RoyaltyRole string

const (
	RoyaltyRoleAuthor      RoyaltyRole = "Author"
	RoyaltyRoleEditor      RoyaltyRole = "Editor"
	RoyaltyRoleChiefEditor RoyaltyRole = "ChiefEditor"
)

// RoyaltyRoles lists every role the resolver attempts, in resolution order.
var RoyaltyRoles = []RoyaltyRole{RoyaltyRoleAuthor, RoyaltyRoleEditor, RoyaltyRoleChiefEditor}

type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "Pending"
	PayoutStatusPaid    PayoutStatus = "Paid"
	PayoutStatusFailed  PayoutStatus = "Failed"
)

type ContractStatus string

const (
	ContractStatusActive   ContractStatus = "Active"
	ContractStatusInactive ContractStatus = "Inactive"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "Active"
	SubscriptionStatusExpired   SubscriptionStatus = "Expired"
	SubscriptionStatusCancelled SubscriptionStatus = "Cancelled"
)
