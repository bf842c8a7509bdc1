package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"threatnav-go/core"
	"threatnav-go/planner"
	"threatnav-go/threat"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func testConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Grid = core.GridConfig{XSize: 4, YSize: 4, XPts: 5, YPts: 5}
	cfg.Time = core.TimeConfig{Enabled: true, TFinal: 10, TPts: 10, Wait: true, Window: &core.WindowConfig{Start: 0, End: 10}}
	cfg.Route = core.RouteConfig{Start: core.PointConfig{X: 0, Y: 0}, Goal: core.GoalConfig{X: 4, Y: 4}}
	cfg.Field = core.FieldConfig{
		Offset: 1,
		Threats: []threat.GaussDynamicThreat{
			{GaussThreat: threat.GaussThreat{Location: threat.Point{X: 2, Y: 2}, Shape: threat.Point{X: 1, Y: 1}, Intensity: 3}},
		},
		Random: &core.RandomFieldConfig{Count: 2, Seed: 3},
	}
	cfg.Experiment.Runs = 2
	return cfg
}

func post(url, body string) *http.Response {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func decode(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		cfg     *core.Config
		metrics *core.Metrics
		hub     *Hub
		ts      *httptest.Server
		cancel  context.CancelFunc
	)

	BeforeEach(func() {
		cfg = testConfig()
		Expect(cfg.Validate()).To(Succeed())

		scenario, err := planner.NewScenario(cfg, core.NewFileManager(GinkgoT().TempDir()))
		Expect(err).NotTo(HaveOccurred())

		metrics = core.NewMetrics()
		logger := zap.NewNop()
		p := planner.New(scenario, planner.WithRecorder(metrics))

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		hub = NewHub(logger, nil)
		go hub.Run(ctx)

		ts = httptest.NewServer(NewServer(cfg.Server, p, hub, metrics, logger).Handler())
	})

	AfterEach(func() {
		ts.Close()
		cancel()
	})

	It("reports health", func() {
		resp, err := http.Get(ts.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		var body map[string]string
		decode(resp, &body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("status", "healthy"))
	})

	It("describes the scenario", func() {
		resp, err := http.Get(ts.URL + "/api/scenario")
		Expect(err).NotTo(HaveOccurred())
		var view ScenarioView
		decode(resp, &view)
		Expect(view.Grid.XPts).To(Equal(5))
		Expect(view.Nodes).To(Equal(250))
		Expect(view.Threats).To(HaveLen(3))
	})

	Context("planning", func() {
		It("plans with the configured scenario", func() {
			resp := post(ts.URL+"/api/plan", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var plan planner.Plan
			decode(resp, &plan)
			Expect(plan.Found).To(BeTrue())
			Expect(plan.Variant).To(Equal("time_astar"))
			Expect(plan.RunID).NotTo(BeEmpty())
			Expect(plan.Waypoints[0].ID).To(Equal(0))
		})

		It("applies request overrides", func() {
			resp := post(ts.URL+"/api/plan", `{"wait": false, "weights": {"move": 1}, "window": {"start": 0, "end": 10}}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var plan planner.Plan
			decode(resp, &plan)
			Expect(plan.Wait).To(BeFalse())
			Expect(plan.Cost).To(BeNumerically("~", 8, 1e-9))
			Expect(plan.Waypoints).To(HaveLen(9))
			Expect(plan.Threat).To(HaveLen(9))
		})

		It("rejects a goal outside the workspace", func() {
			resp := post(ts.URL+"/api/plan", `{"goal": {"x": 40, "y": 4}}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects malformed JSON", func() {
			resp := post(ts.URL+"/api/plan", `{"wait": `)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("records metrics", func() {
			resp := post(ts.URL+"/api/plan", "")
			resp.Body.Close()

			resp, err := http.Get(ts.URL + "/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var buf bytes.Buffer
			_, err = buf.ReadFrom(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring(`threatnav_searches_total{found="true",variant="time_astar"} 1`))
		})
	})

	Context("comparing", func() {
		It("runs the configured number of comparisons", func() {
			resp := post(ts.URL+"/api/compare", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var body struct {
				Results []planner.SimResult `json:"results"`
			}
			decode(resp, &body)
			Expect(body.Results).To(HaveLen(2))
			for _, r := range body.Results {
				Expect(r.Wait.Cost).To(BeNumerically("<=", r.NoWait.Cost+1e-9))
			}
		})

		It("rejects too many runs", func() {
			resp := post(ts.URL+"/api/compare", `{"runs": 100000}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	It("streams search steps to websocket clients", func() {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()
		Eventually(hub.ClientCount).Should(Equal(1))

		resp := post(ts.URL+"/api/plan?stream=1", "")
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		_, data, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		var msg Message
		Expect(json.Unmarshal(data, &msg)).To(Succeed())
		Expect(msg.Type).To(Equal("step"))
		Expect(msg.Step).NotTo(BeNil())
		Expect(msg.Step.Index).To(Equal(1))
	})
})

var _ = Describe("statusFor", func() {
	It("maps planner errors to HTTP codes", func() {
		Expect(statusFor(planner.ErrOutOfBounds)).To(Equal(http.StatusBadRequest))
		Expect(statusFor(planner.ErrNoTimeDimension)).To(Equal(http.StatusConflict))
		Expect(statusFor(planner.ErrExpansionLimit)).To(Equal(http.StatusUnprocessableEntity))
		Expect(statusFor(context.Canceled)).To(Equal(http.StatusServiceUnavailable))
		Expect(statusFor(http.ErrBodyNotAllowed)).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("originAllowed", func() {
	It("accepts everything without a list", func() {
		Expect(originAllowed(nil, "http://x")).To(BeTrue())
	})
	It("checks listed origins", func() {
		allowed := []string{"http://a"}
		Expect(originAllowed(allowed, "http://a")).To(BeTrue())
		Expect(originAllowed(allowed, "http://b")).To(BeFalse())
	})
})
