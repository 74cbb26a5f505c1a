package headless

import (
	"github.com/gogpu/softvk/command"
	"github.com/gogpu/softvk/queue"
)

func queueSubmit(cbs ...*command.Buffer) queue.Job {
	return queue.Submit(nil, cbs, nil)
}
