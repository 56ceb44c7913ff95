// Package async runs blocking routines on named worker groups and posts their results back to a queue
package async

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwutils"
	"github.com/xiaonanln/worldsync/engine/post"
)

var numAsyncJobWorkersRunning sync.WaitGroup

// ErrJobPanicked is the error of jobs which panicked
var ErrJobPanicked = errors.New("async job panicked")

// AsyncCallback receives the result of an AsyncRoutine
type AsyncCallback func(res interface{}, err error)

func (ac AsyncCallback) callback(queue *post.Queue, res interface{}, err error) {
	if ac != nil {
		queue.Post(func() {
			ac(res, err)
		})
	}
}

// AsyncRoutine is a blocking job
type AsyncRoutine func() (res interface{}, err error)

// AsyncJobWorker runs the jobs of one group in order
type AsyncJobWorker struct {
	jobQueue chan asyncJobItem
}

type asyncJobItem struct {
	queue    *post.Queue
	routine  AsyncRoutine
	callback AsyncCallback
}

func newAsyncJobWorker() *AsyncJobWorker {
	ajw := &AsyncJobWorker{
		jobQueue: make(chan asyncJobItem, consts.ASYNC_JOB_QUEUE_MAXLEN),
	}
	numAsyncJobWorkersRunning.Add(1)
	go ajw.loop()
	return ajw
}

func (ajw *AsyncJobWorker) appendJob(item asyncJobItem) {
	ajw.jobQueue <- item
}

func (ajw *AsyncJobWorker) loop() {
	defer numAsyncJobWorkersRunning.Done()
	for item := range ajw.jobQueue {
		var res interface{}
		var err error
		if gwutils.RunPanicless(func() {
			res, err = item.routine()
		}) {
			err = ErrJobPanicked
		}
		item.callback.callback(item.queue, res, err)
	}
}

var (
	asyncJobWorkersLock sync.RWMutex
	asyncJobWorkers     = map[string]*AsyncJobWorker{}
)

func getAsyncJobWorker(group string) (ajw *AsyncJobWorker) {
	asyncJobWorkersLock.RLock()
	ajw = asyncJobWorkers[group]
	asyncJobWorkersLock.RUnlock()

	if ajw == nil {
		asyncJobWorkersLock.Lock()
		ajw = asyncJobWorkers[group]
		if ajw == nil {
			ajw = newAsyncJobWorker()
			asyncJobWorkers[group] = ajw
		}
		asyncJobWorkersLock.Unlock()
	}
	return
}

// AppendAsyncJob runs routine on the worker of group, callback is posted to queue with the result
//
// Jobs of one group run one by one in the order they are appended.
func AppendAsyncJob(queue *post.Queue, group string, routine AsyncRoutine, callback AsyncCallback) {
	ajw := getAsyncJobWorker(group)
	ajw.appendJob(asyncJobItem{queue, routine, callback})
}

// Shutdown finishes all appended jobs and stops the workers
func Shutdown() {
	// Close all job queue workers
	asyncJobWorkersLock.Lock()
	for _, alw := range asyncJobWorkers {
		close(alw.jobQueue)
	}
	asyncJobWorkers = map[string]*AsyncJobWorker{}
	asyncJobWorkersLock.Unlock()

	// wait for all job workers to quit
	numAsyncJobWorkersRunning.Wait()
}
