package log

import "github.com/sirupsen/logrus"

// Field keys shared by the decoders, so log lines of one frame or slot can
// be grepped together.
const (
	FieldPlugin = "plugin"
	FieldFrame  = "frame"
	FieldSlot   = "slot"
)

// entryLogger implements Logger on a logrus entry. Every With* call returns
// a new entryLogger; the receiver is never modified.
type entryLogger struct {
	e *logrus.Entry
}

func wrap(e *logrus.Entry) Logger { return &entryLogger{e: e} }

func (l *entryLogger) Debug(args ...interface{})                 { l.e.Debug(args...) }
func (l *entryLogger) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l *entryLogger) Info(args ...interface{})                  { l.e.Info(args...) }
func (l *entryLogger) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l *entryLogger) Warn(args ...interface{})                  { l.e.Warn(args...) }
func (l *entryLogger) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l *entryLogger) Error(args ...interface{})                 { l.e.Error(args...) }
func (l *entryLogger) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }

func (l *entryLogger) WithField(field string, value interface{}) Logger {
	return wrap(l.e.WithField(field, value))
}

func (l *entryLogger) WithFields(fields map[string]interface{}) Logger {
	return wrap(l.e.WithFields(fields))
}

func (l *entryLogger) WithError(err error) Logger {
	return wrap(l.e.WithError(err))
}

// WithFrame tags the line with the capture frame number.
func (l *entryLogger) WithFrame(number uint64) Logger {
	return wrap(l.e.WithField(FieldFrame, number))
}

// WithSlot tags the line with a VJ connection slot; negative ids are
// omitted since they mean "no slot known".
func (l *entryLogger) WithSlot(id int) Logger {
	if id < 0 {
		return l
	}
	return wrap(l.e.WithField(FieldSlot, id))
}

func (l *entryLogger) IsDebugEnabled() bool { return l.e.Logger.IsLevelEnabled(logrus.DebugLevel) }
func (l *entryLogger) IsInfoEnabled() bool  { return l.e.Logger.IsLevelEnabled(logrus.InfoLevel) }
