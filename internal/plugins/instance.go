// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import (
	"sort"
	"time"
)

// Position is a plugin's location on the pedalboard canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Instance is a plugin loaded on the host.
type Instance struct {
	InstanceID   string             `json:"instance_id"`
	HostInstance int                `json:"host_instance"`
	URI          string             `json:"uri"`
	Position     Position           `json:"position"`
	Parameters   map[string]float64 `json:"parameters"`
	Bypassed     bool               `json:"bypassed"`
	LoadedAt     time.Time          `json:"loaded_at"`
}

func (i *Instance) clone() Instance {
	out := *i
	out.Parameters = make(map[string]float64, len(i.Parameters))
	for k, v := range i.Parameters {
		out.Parameters[k] = v
	}
	return out
}

// table indexes live instances by id and by host slot.
// Not safe for concurrent use; Manager guards it.
type table struct {
	byID   map[string]*Instance
	byHost map[int]string
}

func newTable() *table {
	return &table{
		byID:   make(map[string]*Instance),
		byHost: make(map[int]string),
	}
}

// nextFree returns the lowest unused host slot.
func (t *table) nextFree() int {
	for i := 0; ; i++ {
		if _, used := t.byHost[i]; !used {
			return i
		}
	}
}

func (t *table) insert(inst *Instance) bool {
	if _, dup := t.byID[inst.InstanceID]; dup {
		return false
	}
	if _, used := t.byHost[inst.HostInstance]; used {
		return false
	}
	t.byID[inst.InstanceID] = inst
	t.byHost[inst.HostInstance] = inst.InstanceID
	return true
}

func (t *table) remove(id string) {
	inst, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byHost, inst.HostInstance)
	delete(t.byID, id)
}

func (t *table) byHostInstance(hi int) (*Instance, bool) {
	id, ok := t.byHost[hi]
	if !ok {
		return nil, false
	}
	return t.byID[id], true
}

// sorted returns the live instances ordered by host slot.
func (t *table) sorted() []*Instance {
	out := make([]*Instance, 0, len(t.byID))
	for _, inst := range t.byID {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostInstance < out[j].HostInstance })
	return out
}

func (t *table) clear() {
	t.byID = make(map[string]*Instance)
	t.byHost = make(map[int]string)
}
