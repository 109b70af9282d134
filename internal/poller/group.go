package poller

import (
	"fmt"
	"sort"
	"sync"
)

// Resource — общая часть координаторов, не зависящая от типа снимка.
type Resource interface {
	Name() string
	Start()
	Stop()
	Refresh()
	DismissError()
	Status() Status
}

// Group владеет набором координаторов: общий Start/Stop и поиск по имени ресурса.
type Group struct {
	mu        sync.RWMutex
	resources map[string]Resource
}

func NewGroup() *Group {
	return &Group{resources: make(map[string]Resource)}
}

func (g *Group) Add(r Resource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources[r.Name()] = r
}

func (g *Group) Get(name string) (Resource, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}
	return r, nil
}

func (g *Group) StartAll() {
	for _, r := range g.list() {
		r.Start()
	}
}

// StopAll останавливает все ресурсы. Каждый Stop ждет только свой цикл, поэтому делаем это параллельно.
func (g *Group) StopAll() {
	var wg sync.WaitGroup
	for _, r := range g.list() {
		wg.Add(1)
		go func(r Resource) {
			defer wg.Done()
			r.Stop()
		}(r)
	}
	wg.Wait()
}

// Statuses отсортированы по имени ресурса.
func (g *Group) Statuses() []Status {
	list := g.list()
	out := make([]Status, 0, len(list))
	for _, r := range list {
		out = append(out, r.Status())
	}
	return out
}

func (g *Group) list() []Resource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Resource, 0, len(g.resources))
	for _, r := range g.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
