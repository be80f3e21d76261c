package miniapp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"miniapp-shop/internal/shopclient"
)

type fakeFragments struct {
	html string
	err  error
	last string
}

func (f *fakeFragments) Search(_ context.Context, q string) (string, error) {
	f.last = q
	return f.html, f.err
}

func (f *fakeFragments) ProductsByCategory(_ context.Context, id string) (string, error) {
	f.last = id
	return f.html, f.err
}

func TestSwitchCategoryReplacesGrid(t *testing.T) {
	view := &recordingGridView{}
	toasts := &recordingToastView{}
	src := &fakeFragments{html: `<article data-product-id="1"></article>`}
	g := NewGrid(src, view, NewToaster(toasts, nil, &fakeScheduler{}), nil)

	require.NoError(t, g.SwitchCategory(context.Background(), "3"))
	require.Equal(t, "3", src.last)
	require.Equal(t, []string{"dim", "replace", "undim"}, view.events)
	require.Equal(t, src.html, view.html)
	require.Empty(t, toasts.Presented())
}

func TestSwitchCategoryFailureRestoresOpacity(t *testing.T) {
	view := &recordingGridView{html: "old"}
	toasts := &recordingToastView{}
	g := NewGrid(&fakeFragments{err: errors.New("offline")}, view, NewToaster(toasts, nil, &fakeScheduler{}), nil)

	require.Error(t, g.SwitchCategory(context.Background(), "all"))
	require.Equal(t, []string{"dim", "undim"}, view.events)
	require.Equal(t, "old", view.html)

	presented := toasts.Presented()
	require.Len(t, presented, 1)
	require.Equal(t, SeverityError, presented[0].Severity)
	require.Equal(t, msgCategoryFailed, presented[0].Message)
}

func TestSearchFailureIsSilent(t *testing.T) {
	view := &recordingGridView{}
	toasts := &recordingToastView{}
	g := NewGrid(&fakeFragments{err: errors.New("offline")}, view, NewToaster(toasts, nil, &fakeScheduler{}), nil)

	require.Error(t, g.Search(context.Background(), "чай"))
	require.Equal(t, []string{"dim", "undim"}, view.events)
	require.Empty(t, toasts.Presented())
}

type slowFragments struct {
	first   chan struct{}
	release chan struct{}
}

func (s *slowFragments) Search(_ context.Context, q string) (string, error) {
	if q == "slow" {
		close(s.first)
		<-s.release
	}
	return q, nil
}

func (s *slowFragments) ProductsByCategory(context.Context, string) (string, error) {
	return "", nil
}

func TestStaleFragmentIsDropped(t *testing.T) {
	view := &recordingGridView{}
	src := &slowFragments{first: make(chan struct{}), release: make(chan struct{})}
	g := NewGrid(src, view, NewToaster(&recordingToastView{}, nil, &fakeScheduler{}), nil)

	done := make(chan error)
	go func() { done <- g.Search(context.Background(), "slow") }()
	<-src.first

	require.NoError(t, g.Search(context.Background(), "fast"))
	close(src.release)
	require.NoError(t, <-done)

	require.Equal(t, "fast", view.html)
}

type blockingCategories struct {
	started chan string
	release map[string]chan struct{}
}

func (b *blockingCategories) Search(context.Context, string) (string, error) {
	return "", nil
}

func (b *blockingCategories) ProductsByCategory(_ context.Context, id string) (string, error) {
	b.started <- id
	<-b.release[id]
	return "category " + id, nil
}

func TestGridStaysDimmedUntilLatestRequestSettles(t *testing.T) {
	view := &recordingGridView{}
	src := &blockingCategories{
		started: make(chan string),
		release: map[string]chan struct{}{"1": make(chan struct{}), "2": make(chan struct{})},
	}
	g := NewGrid(src, view, NewToaster(&recordingToastView{}, nil, &fakeScheduler{}), nil)

	first := make(chan error)
	go func() { first <- g.SwitchCategory(context.Background(), "1") }()
	require.Equal(t, "1", <-src.started)

	second := make(chan error)
	go func() { second <- g.SwitchCategory(context.Background(), "2") }()
	require.Equal(t, "2", <-src.started)

	close(src.release["1"])
	require.NoError(t, <-first)
	view.mu.Lock()
	require.Equal(t, []string{"dim", "dim"}, view.events)
	view.mu.Unlock()

	close(src.release["2"])
	require.NoError(t, <-second)
	view.mu.Lock()
	defer view.mu.Unlock()
	require.Equal(t, []string{"dim", "dim", "replace", "undim"}, view.events)
	require.Equal(t, "category 2", view.html)
}

func TestGridUndimsWhenNewerRequestFinishesFirst(t *testing.T) {
	view := &recordingGridView{}
	src := &slowFragments{first: make(chan struct{}), release: make(chan struct{})}
	g := NewGrid(src, view, NewToaster(&recordingToastView{}, nil, &fakeScheduler{}), nil)

	done := make(chan error)
	go func() { done <- g.Search(context.Background(), "slow") }()
	<-src.first

	require.NoError(t, g.Search(context.Background(), "fast"))
	close(src.release)
	require.NoError(t, <-done)

	view.mu.Lock()
	defer view.mu.Unlock()
	require.Equal(t, []string{"dim", "dim", "replace", "undim"}, view.events)
}

func TestCategoryStatusWithoutMessageUsesLocalText(t *testing.T) {
	toasts := &recordingToastView{}
	src := &fakeFragments{err: &shopclient.ServerError{Status: http.StatusNotFound}}
	g := NewGrid(src, &recordingGridView{}, NewToaster(toasts, nil, &fakeScheduler{}), nil)

	require.Error(t, g.SwitchCategory(context.Background(), "99"))
	presented := toasts.Presented()
	require.Len(t, presented, 1)
	require.Equal(t, msgCategoryFailed, presented[0].Message)
}
