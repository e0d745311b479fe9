// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package flatten

// Interner assigns each distinct string the index of its first
// appearance.  The zero value is ready to use.
type Interner struct {
	names []string
	index map[string]uint32
}

// Intern returns the index of s, adding it to the table if it is new.
func (in *Interner) Intern(s string) uint32 {
	if i, ok := in.index[s]; ok {
		return i
	}
	if in.index == nil {
		in.index = make(map[string]uint32)
	}
	i := uint32(len(in.names))
	in.names = append(in.names, s)
	in.index[s] = i
	return i
}

func (in *Interner) Len() int {
	return len(in.names)
}

// Names returns the table in index order.
func (in *Interner) Names() []string {
	return in.names
}
