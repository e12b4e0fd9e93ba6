// Package schedtest 테스트용 가짜 스케줄러 HTTP 서버를 제공합니다.
//
// scheduler.Client가 호출하는 REST API를 메모리 상태로 흉내 내며, 작업 상태 전이와
// 일시적 장애(상태 코드 주입)를 테스트 코드에서 조작할 수 있습니다.
package schedtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/darkkaiser/remote-task/internal/contract"
	applog "github.com/darkkaiser/remote-task/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SubmitPayload 가짜 서버가 수신한 작업 제출 요청입니다.
type SubmitPayload struct {
	Name           string            `json:"name"`
	Image          string            `json:"image"`
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	Env            map[string]string `json:"env"`
	TimeoutSeconds int64             `json:"timeoutSeconds"`
}

type job struct {
	taskID     string
	payload    SubmitPayload
	state      contract.RemoteState
	result     *contract.ExecutionResult
	machine    *contract.MachineInfo
	terminated bool
}

// fault 다음 n번의 요청에 주입할 응답
type fault struct {
	method string
	status int
	header http.Header
	body   string
	n      int
}

// Server 가짜 스케줄러 서버입니다.
type Server struct {
	e   *echo.Echo
	srv *httptest.Server

	mu     sync.Mutex
	seq    int
	jobs   map[string]*job
	calls  map[string]int
	faults []*fault

	rejectImage string
}

// NewServer 가짜 스케줄러 서버를 시작합니다. 사용 후 Close를 호출해야 합니다.
func NewServer() *Server {
	s := &Server{
		jobs:  make(map[string]*job),
		calls: make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = Logger{applog.StandardLogger()}

	e.Use(middleware.Recover())
	e.Use(s.injectFaults)

	g := e.Group("/api/v1/jobs")
	g.POST("", s.submit)
	g.DELETE("/:job", s.deleteJob)
	g.GET("/:job/tasks/:task/state", s.state)
	g.GET("/:job/tasks/:task/result", s.result)
	g.GET("/:job/tasks/:task/machine", s.machine)
	g.POST("/:job/tasks/:task/terminate", s.terminate)

	s.e = e
	s.srv = httptest.NewServer(e)

	return s
}

// URL 서버의 기본 주소를 반환합니다.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close 서버를 종료합니다.
func (s *Server) Close() {
	s.srv.Close()
}

// Calls "METHOD 경로 패턴" 단위의 호출 횟수를 반환합니다. (예: "GET /api/v1/jobs/:job/tasks/:task/state")
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[route]
}

// Jobs 현재 존재하는 Job 개수를 반환합니다.
func (s *Server) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}

// Submitted 지정된 Job의 제출 요청 본문을 반환합니다.
func (s *Server) Submitted(jobID string) (SubmitPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return SubmitPayload{}, false
	}
	return j.payload, true
}

// Terminated 지정된 작업에 취소 요청이 도착했는지 반환합니다.
func (s *Server) Terminated(key contract.TaskKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[key.JobID]
	return ok && j.terminated
}

// RejectImage 지정된 이미지의 작업 제출을 422로 거부하도록 설정합니다.
func (s *Server) RejectImage(image string) {
	s.mu.Lock()
	s.rejectImage = image
	s.mu.Unlock()
}

// SetState 작업의 원격 상태를 변경합니다.
func (s *Server) SetState(key contract.TaskKey, state contract.RemoteState) {
	s.withJob(key, func(j *job) { j.state = state })
}

// SetResult 작업의 실행 결과를 지정합니다.
func (s *Server) SetResult(key contract.TaskKey, r contract.ExecutionResult) {
	s.withJob(key, func(j *job) { j.result = &r })
}

// SetMachine 작업이 배치된 머신 정보를 지정합니다.
func (s *Server) SetMachine(key contract.TaskKey, m contract.MachineInfo) {
	s.withJob(key, func(j *job) { j.machine = &m })
}

// FailNext 다음 n번의 method 요청에 status 응답을 반환합니다. method가 빈 문자열이면 모든 요청에 적용됩니다.
func (s *Server) FailNext(method string, status, n int, header http.Header) {
	s.mu.Lock()
	s.faults = append(s.faults, &fault{method: method, status: status, header: header, n: n, body: http.StatusText(status)})
	s.mu.Unlock()
}

func (s *Server) withJob(key contract.TaskKey, fn func(*job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[key.JobID]; ok && j.taskID == key.TaskID {
		fn(j)
	}
}

func (s *Server) injectFaults(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls[c.Request().Method+" "+c.Path()]++

		var hit *fault
		for _, f := range s.faults {
			if f.n > 0 && (f.method == "" || f.method == c.Request().Method) {
				f.n--
				hit = f
				break
			}
		}
		s.mu.Unlock()

		if hit != nil {
			for k, vs := range hit.header {
				for _, v := range vs {
					c.Response().Header().Add(k, v)
				}
			}
			return c.String(hit.status, hit.body)
		}

		return next(c)
	}
}

func (s *Server) submit(c echo.Context) error {
	var p SubmitPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Image == "" || p.Image == s.rejectImage {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "image rejected: " + p.Image})
	}

	s.seq++
	jobID := fmt.Sprintf("job-%d", s.seq)
	taskID := fmt.Sprintf("task-%d", s.seq)
	s.jobs[jobID] = &job{
		taskID:  taskID,
		payload: p,
		state:   contract.StatePending,
	}

	return c.JSON(http.StatusCreated, map[string]string{"jobId": jobID, "taskId": taskID})
}

func (s *Server) lookup(c echo.Context) (*job, error) {
	j, ok := s.jobs[c.Param("job")]
	if !ok || j.taskID != c.Param("task") {
		return nil, echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return j, nil
}

func (s *Server) state(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"state": string(j.state)})
}

func (s *Server) result(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.lookup(c)
	if err != nil {
		return err
	}
	if j.result == nil {
		return echo.NewHTTPError(http.StatusConflict, "task has not finished")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"exitCode": j.result.ExitCode,
		"failed":   j.result.Failed,
		"message":  j.result.Message,
	})
}

func (s *Server) machine(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.lookup(c)
	if err != nil {
		return err
	}
	if j.machine == nil {
		return echo.NewHTTPError(http.StatusNotFound, "machine not assigned")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"hostname":     j.machine.Hostname,
		"instanceType": j.machine.InstanceType,
		"zone":         j.machine.Zone,
		"priceModel":   j.machine.PriceModel,
	})
}

func (s *Server) terminate(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.lookup(c)
	if err != nil {
		return err
	}
	j.terminated = true
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) deleteJob(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[c.Param("job")]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	delete(s.jobs, c.Param("job"))
	return c.NoContent(http.StatusNoContent)
}
