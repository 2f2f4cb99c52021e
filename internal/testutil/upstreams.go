package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/omriShneor/alfred_assistant/internal/llm"
)

// LLMReply is one scripted answer from FakeLLM. A non-zero Status is sent
// as an error response with Body; otherwise Content becomes the first choice.
type LLMReply struct {
	Status  int
	Body    string
	Content string
}

// FakeLLM is an OpenAI-compatible chat completions endpoint. Replies are
// served in order; once they run out the last one repeats, and a reply
// queued after that is served next.
type FakeLLM struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  []LLMReply
	served   int
	requests [][]llm.Message
}

// NewFakeLLM starts the endpoint and closes it when the test ends
func NewFakeLLM(t *testing.T) *FakeLLM {
	t.Helper()

	f := &FakeLLM{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Reply queues a successful completion
func (f *FakeLLM) Reply(content string) {
	f.Queue(LLMReply{Content: content})
}

// Queue adds replies to the script
func (f *FakeLLM) Queue(replies ...LLMReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

// Requests returns the conversations received so far
func (f *FakeLLM) Requests() [][]llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]llm.Message{}, f.requests...)
}

func (f *FakeLLM) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []llm.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"bad request body"}}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req.Messages)
	reply := LLMReply{Content: `{"intent":"chat","message":"Hello!"}`}
	if n := len(f.replies); n > 0 {
		reply = f.replies[min(f.served, n-1)]
		if f.served < n {
			f.served++
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reply.Status != 0 {
		w.WriteHeader(reply.Status)
		w.Write([]byte(reply.Body))
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": reply.Content}},
		},
	})
}

// WeatherReport is what FakeWeather answers for a known city
type WeatherReport struct {
	Name        string
	Temp        float64
	Humidity    int
	Description string
	WindSpeed   float64
}

// FakeWeather is an OpenWeatherMap current-weather endpoint. Unknown cities
// get 404 and a wrong appid gets 401.
type FakeWeather struct {
	Server *httptest.Server
	APIKey string

	mu      sync.Mutex
	reports map[string]WeatherReport
	queries []string
}

// NewFakeWeather starts the endpoint and closes it when the test ends
func NewFakeWeather(t *testing.T, apiKey string) *FakeWeather {
	t.Helper()

	f := &FakeWeather{APIKey: apiKey, reports: map[string]WeatherReport{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Set registers the report returned for city
func (f *FakeWeather) Set(city string, report WeatherReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[strings.ToLower(city)] = report
}

// Queries returns the q parameters received so far
func (f *FakeWeather) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.queries...)
}

func (f *FakeWeather) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	if q.Get("appid") != f.APIKey {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key."}`))
		return
	}

	f.mu.Lock()
	f.queries = append(f.queries, q.Get("q"))
	report, ok := f.reports[strings.ToLower(q.Get("q"))]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"name":    report.Name,
		"main":    map[string]any{"temp": report.Temp, "humidity": report.Humidity},
		"weather": []map[string]string{{"description": report.Description}},
		"wind":    map[string]float64{"speed": report.WindSpeed},
	})
}
