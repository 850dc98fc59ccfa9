package roundrobin

import (
	"testing"
	"time"

	"github.com/agiledragon/gomonkey"
	. "github.com/smartystreets/goconvey/convey"

	"clustercore/pkg/model"
)

// TestWeightedRoundRobinDistribution_BDD exercises the same ratio property as
// TestSelect_WeightedRoundRobinRatio, but in the BDD style: it's the
// distribution suite a goconvey reader would expect, phrased as scenario
// narration rather than table rows.
func TestWeightedRoundRobinDistribution_BDD(t *testing.T) {
	Convey("Given three endpoints with weights 1, 2, 5 and no warmup", t, func() {
		light := newEndpoint("light", map[string]string{"weight": "1", "warmup": "0"})
		medium := newEndpoint("medium", map[string]string{"weight": "2", "warmup": "0"})
		heavy := newEndpoint("heavy", map[string]string{"weight": "5", "warmup": "0"})
		endpoints := []model.Endpoint{light, medium, heavy}
		consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
		call := model.NewCall("Echo", nil, nil)
		lb := New()

		Convey("When selected many times in one (service, method) scope", func() {
			counts := map[model.Endpoint]int{}
			const rounds = 800
			for i := 0; i < rounds; i++ {
				counts[lb.Select(endpoints, consumer, call)]++
			}

			Convey("Then each endpoint's share converges to its weight's fraction of the total", func() {
				total := float64(1 + 2 + 5)
				So(float64(counts[light])/float64(rounds), ShouldAlmostEqual, 1/total, 0.05)
				So(float64(counts[medium])/float64(rounds), ShouldAlmostEqual, 2/total, 0.05)
				So(float64(counts[heavy])/float64(rounds), ShouldAlmostEqual, 5/total, 0.05)
			})

			Convey("Then every endpoint is selected at least once", func() {
				So(counts[light], ShouldBeGreaterThan, 0)
				So(counts[medium], ShouldBeGreaterThan, 0)
				So(counts[heavy], ShouldBeGreaterThan, 0)
			})
		})
	})
}

// TestRecycleIdleNodes_PatchesMonotonicClock patches time.Now rather than
// sleeping recyclePeriod, so a node can be driven idle-and-evicted in a test
// that runs in microseconds.
func TestRecycleIdleNodes_PatchesMonotonicClock(t *testing.T) {
	Convey("Given a group with two known nodes", t, func() {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		patch := gomonkey.ApplyFunc(time.Now, func() time.Time { return base })
		defer patch.Reset()

		stays := newEndpoint("stays", map[string]string{"weight": "1", "warmup": "0"})
		leaves := newEndpoint("leaves", map[string]string{"weight": "1", "warmup": "0"})
		consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
		call := model.NewCall("Echo", nil, nil)
		lb := New()

		lb.Select([]model.Endpoint{stays, leaves}, consumer, call)
		key := consumer.Path() + "#" + call.MethodName
		g := lb.groupFor(key)
		So(len(g.nodes), ShouldEqual, 2)

		Convey("When time advances past recyclePeriod and leaves drops out of the endpoint set", func() {
			patch.Reset()
			patch = gomonkey.ApplyFunc(time.Now, func() time.Time { return base.Add(recyclePeriod + time.Second) })
			defer patch.Reset()

			lb.Select([]model.Endpoint{stays}, consumer, call)

			Convey("Then leaves's node is evicted but stays's node remains", func() {
				So(len(g.nodes), ShouldEqual, 1)
				_, stillPresent := g.nodes[leaves.URL().Identity()]
				So(stillPresent, ShouldBeFalse)
				_, stillThere := g.nodes[stays.URL().Identity()]
				So(stillThere, ShouldBeTrue)
			})
		})
	})
}
