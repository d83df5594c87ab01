package config

import (
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
)

// ParentFromAccount converts a provider listing entry into a parent record.
func ParentFromAccount(a mailapi.Account) ParentAccount {
	id := a.AccountID
	return ParentAccount{
		Email:           a.Email,
		AccountID:       &id,
		Name:            a.Name,
		Status:          a.Status,
		LatestEmailTime: a.LatestEmailTime,
		CreateTime:      a.CreateTime,
	}
}

// ChildFromAccount converts a provider listing entry into a child record.
func ChildFromAccount(a mailapi.Account) ChildAccount {
	return ChildAccount{
		Email:           a.Email,
		AccountID:       a.AccountID,
		Name:            a.Name,
		Status:          a.Status,
		LatestEmailTime: a.LatestEmailTime,
		CreateTime:      a.CreateTime,
	}
}

// SplitAccounts separates the parent (the entry whose email equals
// loginEmail) from the children. When the provider does not list the
// parent, an empty one is synthesized.
func SplitAccounts(list []mailapi.Account, loginEmail string, now time.Time) (ParentAccount, []ChildAccount) {
	var parent *ParentAccount
	children := make([]ChildAccount, 0, len(list))

	for _, a := range list {
		if parent == nil && a.Email == loginEmail {
			p := ParentFromAccount(a)
			parent = &p
			continue
		}
		children = append(children, ChildFromAccount(a))
	}

	if parent == nil {
		return ParentAccount{
			Email:      loginEmail,
			CreateTime: now.UTC().Format(time.RFC3339),
		}, children
	}
	return *parent, children
}
