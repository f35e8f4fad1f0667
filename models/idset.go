package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// IDSet is a set of object ids that keeps insertion order for storage.
type IDSet struct {
	order []primitive.ObjectID
	index map[primitive.ObjectID]struct{}
}

func NewIDSet(ids []primitive.ObjectID) *IDSet {
	s := &IDSet{index: make(map[primitive.ObjectID]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *IDSet) Has(id primitive.ObjectID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *IDSet) Add(id primitive.ObjectID) bool {
	if s.Has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *IDSet) Remove(id primitive.ObjectID) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips membership of id and reports whether id is a member afterwards.
func (s *IDSet) Toggle(id primitive.ObjectID) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

func (s *IDSet) Len() int {
	return len(s.order)
}

// Slice returns the members in insertion order. The result is never nil.
func (s *IDSet) Slice() []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(s.order))
	copy(out, s.order)
	return out
}
