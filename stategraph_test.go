package densim

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStateGraph(t *testing.T) {
	Convey("Given an empty state graph", t, func() {
		sg := NewStateGraph()

		Convey("When nodes and an edge are added", func() {
			So(sg.AddNode(0), ShouldBeNil)
			So(sg.AddNode(0), ShouldBeNil)
			So(sg.AddEdge(0, 1), ShouldBeNil)

			Convey("Then the missing endpoint is created", func() {
				So(sg.Nodes(), ShouldResemble, []int{0, 1})
				So(sg.HasEdge(1, 0), ShouldBeTrue)

				neighbors, ok := sg.Neighbors(0)
				So(ok, ShouldBeTrue)
				So(sortedMembers(neighbors), ShouldResemble, []int{1})
			})

			Convey("Then removing a node drops its edges", func() {
				So(sg.RemoveNode(0), ShouldBeNil)
				So(sg.Has(0), ShouldBeFalse)

				_, ok := sg.Neighbors(0)
				So(ok, ShouldBeFalse)

				neighbors, ok := sg.Neighbors(1)
				So(ok, ShouldBeTrue)
				So(neighbors.Cardinality(), ShouldEqual, 0)
			})

			Convey("Then a removed id can not come back", func() {
				So(sg.RemoveNode(1), ShouldBeNil)
				So(errors.Is(sg.AddNode(1), ErrNodeReused), ShouldBeTrue)
				So(errors.Is(sg.AddEdge(0, 1), ErrNodeReused), ShouldBeTrue)
			})
		})

		Convey("Self edges and unknown removals should fail", func() {
			So(errors.Is(sg.AddEdge(2, 2), ErrApplication), ShouldBeTrue)
			So(errors.Is(sg.RemoveNode(9), ErrUnknownNode), ShouldBeTrue)
		})
	})

	Convey("Given a seed graph", t, func() {
		seed := CompleteSeedGraph([]int{0, 1, 2})

		Convey("The run-owned copy should not alias it", func() {
			sg := NewStateGraphFrom(seed)
			So(sg.HasEdge(0, 2), ShouldBeTrue)

			So(sg.RemoveNode(2), ShouldBeNil)
			So(seed.Node(2), ShouldNotBeNil)
			So(seed.HasEdgeBetween(0, 2), ShouldBeTrue)
		})

		Convey("SeedGraph should skip self edges", func() {
			g := SeedGraph([]int{4}, [][2]int{{4, 4}, {4, 5}})
			So(g.Nodes().Len(), ShouldEqual, 2)
			So(g.Edges().Len(), ShouldEqual, 1)
		})
	})
}
