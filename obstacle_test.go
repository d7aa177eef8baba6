package sst

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

var errBoom = errors.New("oracle boom")

type mockOracle struct {
	hits    []int
	variant map[int]ObstacleVariant
	err     error
}

func (m *mockOracle) Query(seg Segment) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockOracle) Variant(idx int) ObstacleVariant {
	return m.variant[idx]
}

func TestCollidesAABBAlwaysBlocks(t *testing.T) {
	oracle := &mockOracle{hits: []int{0}, variant: map[int]ObstacleVariant{0: AABBBox}}
	hit, err := collides(oracle, Segment{Start: r3.Vector{}, End: r3.Vector{X: 1}}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
}

func TestCollidesTriPrismDefersToNarrowPhase(t *testing.T) {
	oracle := &mockOracle{hits: []int{0}, variant: map[int]ObstacleVariant{0: TriPrism}}
	calledWith := -1
	narrow := func(idx int, seg Segment) (bool, error) {
		calledWith = idx
		return false, nil
	}
	hit, err := collides(oracle, Segment{}, narrow)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)
	test.That(t, calledWith, test.ShouldEqual, 0)
}

func TestCollidesTriPrismWithNoNarrowPhaseTreatsHitAsCollision(t *testing.T) {
	oracle := &mockOracle{hits: []int{0}, variant: map[int]ObstacleVariant{0: TriPrism}}
	hit, err := collides(oracle, Segment{}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
}

func TestCollidesNoHits(t *testing.T) {
	oracle := &mockOracle{}
	hit, err := collides(oracle, Segment{}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)
}

func TestCollidesPropagatesOracleError(t *testing.T) {
	oracle := &mockOracle{err: errBoom}
	_, err := collides(oracle, Segment{}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
