package dao

import (
	"github.com/ethereum/go-ethereum/common"
)

// Registry is the fixed member set. It is populated once and never changes.
type Registry struct {
	order []common.Address
	index map[common.Address]struct{}
}

// NewRegistry keeps the first occurrence of each address in input order.
func NewRegistry(members []common.Address) (*Registry, error) {
	if len(members) == 0 {
		return nil, ErrEmptyMembers
	}

	r := &Registry{
		index: make(map[common.Address]struct{}, len(members)),
	}
	var void struct{}
	for _, m := range members {
		if _, ok := r.index[m]; ok {
			continue
		}
		r.index[m] = void
		r.order = append(r.order, m)
	}
	return r, nil
}

func (r *Registry) IsMember(identity common.Address) bool {
	_, ok := r.index[identity]
	return ok
}

// Members returns a copy of the member list.
func (r *Registry) Members() []common.Address {
	return append([]common.Address(nil), r.order...)
}

func (r *Registry) Len() int {
	return len(r.order)
}
