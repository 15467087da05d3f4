package session

import (
	"context"
	"errors"
	"image"
	"log"

	"github.com/junsooki/dvsview/internal/accumulator"
	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/control"
	"github.com/junsooki/dvsview/internal/event"
	"github.com/junsooki/dvsview/internal/snapshot"
	"github.com/junsooki/dvsview/internal/source"
)

// Live shows a camera, records on request and saves calibration frames.
type Live struct {
	cfg        config.CameraConfig
	manager    source.Manager
	recordPath string
	calib      *snapshot.Saver
	env        Env

	cam   source.Camera
	acc   *accumulator.Accumulator
	rec   control.Recorder
	last  *image.RGBA
	drops dropLog
}

// NewLive creates a live session recording to recordPath and saving
// calibration frames through calib.
func NewLive(cfg config.CameraConfig, mgr source.Manager, recordPath string, calib *snapshot.Saver, env Env) *Live {
	return &Live{
		cfg:        cfg,
		manager:    mgr,
		recordPath: recordPath,
		calib:      calib,
		env:        env,
	}
}

// Recording reports the recording state.
func (l *Live) Recording() control.State {
	return l.rec.State()
}

// Run drives the session until a stop signal arrives or ctx is done.
func (l *Live) Run(ctx context.Context) error {
	interval := frameInterval(l.cfg.FPS)
	for {
		if ctx.Err() != nil {
			l.shutdown(control.Key)
			return nil
		}

		wait := interval
		if l.cam != nil && !l.cam.IsConnected() {
			log.Println("camera disconnected")
			l.closeCamera()
		}
		if l.cam == nil {
			if err := l.connect(); err != nil {
				log.Printf("no camera: %v, retrying in %v", err, l.cfg.ReconnectInterval)
				wait = l.cfg.ReconnectInterval
			}
		}

		if l.cam != nil {
			frame, err := l.acc.TakeSnapshot()
			if err != nil {
				return err
			}
			l.last = frame
			l.env.show(frame)
		}

		for _, s := range l.env.poll(wait, keySignals) {
			if l.handle(s) {
				l.shutdown(s.Origin)
				return nil
			}
		}
	}
}

func (l *Live) connect() error {
	cams := l.manager.Cameras()
	if len(cams) == 0 {
		return source.ErrNoCamera
	}
	cam, err := l.manager.Open(cams[0].Serial)
	if err != nil {
		return err
	}

	w, h := cam.Width(), cam.Height()
	if l.acc == nil || l.acc.Width() != w || l.acc.Height() != h {
		acc := accumulator.New()
		if err := acc.Setup(w, h); err != nil {
			return err
		}
		l.acc = acc
		l.env.resize(w, h)
	}

	acc := l.acc
	cam.SetBatchEventsNum(l.cfg.BatchEvents)
	cam.OnEvents(func(batch event.Batch) {
		if err := acc.ApplyEvents(batch); err != nil {
			l.drops.report(err)
		}
	})
	cam.OnTrigger(func(t event.Trigger) {
		log.Printf("trigger in: id %d polarity %v at %d", t.ID, t.Polarity, t.Timestamp)
	})
	if err := cam.Start(); err != nil {
		return err
	}

	l.cam = cam
	log.Printf("camera %s %s opened (%dx%d)", cams[0].Manufacturer, cams[0].Serial, w, h)
	return nil
}

// closeCamera drops a lost camera. A recording in progress is over.
func (l *Live) closeCamera() {
	l.stopRecording()
	l.cam.Stop()
	l.cam = nil
}

// stopRecording ends a recording in progress without announcing it.
func (l *Live) stopRecording() {
	if l.rec.State() != control.Active {
		return
	}
	if err := l.cam.StopRecording(); err != nil && !errors.Is(err, source.ErrNotRecording) {
		log.Printf("stop recording: %v", err)
	}
	l.rec.Handle(control.StopRecording)
}

// handle applies one signal and reports whether the session must end.
func (l *Live) handle(s control.Signal) bool {
	switch s.Kind {
	case control.Stop:
		return true
	case control.StartRecording, control.StopRecording, control.ToggleRecording:
		l.record(s)
	case control.Calibrate:
		l.calibrate(s)
	}
	return false
}

func (l *Live) record(s control.Signal) {
	defer l.env.consume(s)

	action := l.rec.Handle(s.Kind)
	switch action {
	case control.Start:
		err := source.ErrNoCamera
		if l.cam != nil {
			err = l.cam.StartRecording(l.recordPath)
		}
		if err != nil {
			log.Printf("start recording: %v", err)
			l.rec.Revert(action)
			return
		}
		log.Printf("recording started (%s): %s", s.Origin, l.recordPath)
		l.env.announce(s, control.StartRecording)
	case control.Finish:
		err := source.ErrNoCamera
		if l.cam != nil {
			err = l.cam.StopRecording()
		}
		if err != nil {
			log.Printf("stop recording: %v", err)
			l.rec.Revert(action)
			return
		}
		log.Printf("recording stopped (%s)", s.Origin)
		l.env.announce(s, control.StopRecording)
	}
}

func (l *Live) calibrate(s control.Signal) {
	defer l.env.consume(s)

	if l.last == nil || l.calib == nil {
		log.Println("calibration skipped: no frame")
		return
	}
	path, err := l.calib.Save(l.last)
	if err != nil {
		log.Printf("save calibration frame: %v", err)
		return
	}
	log.Printf("calibration frame saved: %s", path)
	l.env.announce(s, control.Calibrate)
}

func (l *Live) shutdown(origin control.Origin) {
	if l.cam != nil {
		l.stopRecording()
		l.cam.Stop()
		l.cam = nil
	}
	l.env.finish(origin)
	log.Println("live session finished")
}
