package scriptlang

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
	"github.com/mogaika/frametree/utils"
)

// LineError reports the script line a command failed on.
type LineError struct {
	Line    int
	Keyword string
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Keyword, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
func (e *LineError) Cause() error  { return e.Err }

// Scene keeps the trees and labelled poses a script works on. Roots are
// held strongly; poses only keep their transform and a weak anchor.
type Scene struct {
	roots     map[string]frame.Frame
	rootOrder []string
	poses     map[string]*frame.Pose
}

func NewScene() *Scene {
	return &Scene{
		roots: make(map[string]frame.Frame),
		poses: make(map[string]*frame.Pose),
	}
}

func (s *Scene) AddRoot(name string) (frame.Frame, error) {
	if err := frame.ValidateName(name); err != nil {
		return frame.Frame{}, err
	}
	if _, exists := s.roots[name]; exists {
		return frame.Frame{}, &frame.NameCollisionError{Name: name}
	}
	root := frame.NewRoot(name)
	s.roots[name] = root
	s.rootOrder = append(s.rootOrder, name)
	return root, nil
}

// AdoptRoot registers an existing tree under its root name.
func (s *Scene) AdoptRoot(root frame.Frame) error {
	if !root.IsRoot() {
		return errors.Errorf("Frame %q is not a root", root.Path())
	}
	if err := frame.ValidateName(root.Name()); err != nil {
		return err
	}
	if _, exists := s.roots[root.Name()]; exists {
		return &frame.NameCollisionError{Name: root.Name()}
	}
	s.roots[root.Name()] = root
	s.rootOrder = append(s.rootOrder, root.Name())
	return nil
}

func (s *Scene) Roots() []frame.Frame {
	result := make([]frame.Frame, 0, len(s.rootOrder))
	for _, name := range s.rootOrder {
		result = append(result, s.roots[name])
	}
	return result
}

func (s *Scene) Root(name string) (frame.Frame, bool) {
	f, ok := s.roots[name]
	return f, ok
}

// Frame finds a frame by a path starting with the root name, e.g. world/arm/tool.
func (s *Scene) Frame(path string) (frame.Frame, error) {
	rootName, rest, _ := strings.Cut(strings.Trim(path, "/"), "/")
	root, ok := s.roots[rootName]
	if !ok {
		return frame.Frame{}, errors.Wrapf(frame.ErrFrameNotFound, "No root %q", rootName)
	}
	if rest == "" {
		return root, nil
	}
	if strings.HasPrefix(rest, "/") {
		return frame.Frame{}, errors.Wrapf(frame.ErrFrameNotFound, "Empty name in %q", path)
	}
	return root.Lookup(rest)
}

func (s *Scene) SetPose(label string, p *frame.Pose) {
	s.poses[label] = p
}

func (s *Scene) Pose(label string) (*frame.Pose, bool) {
	p, ok := s.poses[label]
	return p, ok
}

func (s *Scene) Labels() []string {
	labels := make([]string, 0, len(s.poses))
	for label := range s.poses {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Run parses and executes a script.
func (s *Scene) Run(text []byte) error {
	commands, err := ParseScript(text)
	if err != nil {
		return err
	}
	return s.Exec(commands)
}

// Exec executes commands in order and stops at the first failure.
func (s *Scene) Exec(commands []*Command) error {
	for _, c := range commands {
		if c.Keyword == "" {
			continue
		}
		log.Debug().Int("line", c.Line).Str("cmd", c.String()).Msg("exec")
		if err := s.exec(c); err != nil {
			utils.LogDump("Command failed", c.Args)
			return &LineError{Line: c.Line, Keyword: c.Keyword, Err: err}
		}
	}
	return nil
}

func (s *Scene) exec(c *Command) error {
	args := &argReader{args: c.Args}

	switch c.Keyword {
	case "root":
		name, err := args.str()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		_, err = s.AddRoot(name)
		return err
	case "child":
		parent, err := s.frameArg(args)
		if err != nil {
			return err
		}
		name, err := args.str()
		if err != nil {
			return err
		}
		pos, rot, err := args.transform()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		_, err = parent.AddChild(name, pos, rot)
		return err
	case "pose":
		label, err := args.label()
		if err != nil {
			return err
		}
		f, err := s.frameArg(args)
		if err != nil {
			return err
		}
		pos, rot, err := args.transform()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		s.SetPose(label, f.AddPose(pos, rot))
		return nil
	case "update":
		f, err := s.frameArg(args)
		if err != nil {
			return err
		}
		pos, rot, err := args.transform()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		return f.UpdateTransform(pos, rot)
	case "move":
		f, err := s.frameArg(args)
		if err != nil {
			return err
		}
		local, iso, err := args.move()
		if err != nil {
			return err
		}
		if local {
			return f.ApplyInLocalFrame(iso)
		}
		return f.ApplyInParentFrame(iso)
	case "updatepose":
		p, err := s.poseArg(args)
		if err != nil {
			return err
		}
		pos, rot, err := args.transform()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		p.Update(pos, rot)
		return nil
	case "movepose":
		p, err := s.poseArg(args)
		if err != nil {
			return err
		}
		local, iso, err := args.move()
		if err != nil {
			return err
		}
		if local {
			p.ApplyInLocalFrame(iso)
		} else {
			p.ApplyInParentFrame(iso)
		}
		return nil
	case "calibrate":
		parent, err := s.frameArg(args)
		if err != nil {
			return err
		}
		name, err := args.str()
		if err != nil {
			return err
		}
		pos, rot, err := args.transform()
		if err != nil {
			return err
		}
		ref, err := s.poseArg(args)
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		_, err = parent.CalibrateChild(name, pos, rot, ref)
		return err
	case "resolve":
		p, err := s.poseArg(args)
		if err != nil {
			return err
		}
		target, err := s.frameArg(args)
		if err != nil {
			return err
		}
		label, err := args.label()
		if err != nil {
			return err
		}
		if err := args.done(); err != nil {
			return err
		}
		resolved, err := p.InFrame(target)
		if err != nil {
			return err
		}
		s.SetPose(label, resolved)
		return nil
	}
	return errors.Errorf("Unknown command %q", c.Keyword)
}

func (s *Scene) frameArg(args *argReader) (frame.Frame, error) {
	path, err := args.str()
	if err != nil {
		return frame.Frame{}, err
	}
	return s.Frame(path)
}

func (s *Scene) poseArg(args *argReader) (*frame.Pose, error) {
	label, err := args.label()
	if err != nil {
		return nil, err
	}
	p, ok := s.poses[label]
	if !ok {
		return nil, errors.Errorf("Unknown pose $%s", label)
	}
	return p, nil
}

type argReader struct {
	args []interface{}
	pos  int
}

func (r *argReader) next(what string) (interface{}, error) {
	if r.pos >= len(r.args) {
		return nil, errors.Errorf("Missing %s (argument %d)", what, r.pos+1)
	}
	a := r.args[r.pos]
	r.pos++
	return a, nil
}

func (r *argReader) peekWord() (Word, bool) {
	if r.pos >= len(r.args) {
		return "", false
	}
	w, ok := r.args[r.pos].(Word)
	return w, ok
}

// str accepts quoted strings and bare words.
func (r *argReader) str() (string, error) {
	a, err := r.next("name")
	if err != nil {
		return "", err
	}
	switch v := a.(type) {
	case string:
		return v, nil
	case Word:
		return string(v), nil
	}
	return "", errors.Errorf("Argument %d must be a name, got %v", r.pos, a)
}

func (r *argReader) num() (float64, error) {
	a, err := r.next("number")
	if err != nil {
		return 0, err
	}
	if v, ok := a.(float64); ok {
		return v, nil
	}
	return 0, errors.Errorf("Argument %d must be a number, got %v", r.pos, a)
}

func (r *argReader) label() (string, error) {
	a, err := r.next("label")
	if err != nil {
		return "", err
	}
	if l, ok := a.(*Label); ok {
		return l.Name, nil
	}
	return "", errors.Errorf("Argument %d must be a $label, got %v", r.pos, a)
}

func (r *argReader) nums(count int) ([]float64, error) {
	result := make([]float64, count)
	for i := range result {
		v, err := r.num()
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// transform reads "x y z" optionally followed by "rpy r p y", "rpydeg r p y"
// or "quat x y z w".
func (r *argReader) transform() (mgl64.Vec3, geom.Rotation, error) {
	p, err := r.nums(3)
	if err != nil {
		return mgl64.Vec3{}, geom.Rotation{}, err
	}
	pos := mgl64.Vec3{p[0], p[1], p[2]}

	w, ok := r.peekWord()
	if !ok {
		return pos, geom.Identity(), nil
	}
	r.pos++
	switch w {
	case "rpy":
		e, err := r.nums(3)
		if err != nil {
			return pos, geom.Rotation{}, err
		}
		return pos, geom.FromRPY(e[0], e[1], e[2]), nil
	case "rpydeg":
		e, err := r.nums(3)
		if err != nil {
			return pos, geom.Rotation{}, err
		}
		rad := geom.DegreesToRadians(geom.RPY{Roll: e[0], Pitch: e[1], Yaw: e[2]})
		return pos, geom.FromRPY(rad.Roll, rad.Pitch, rad.Yaw), nil
	case "quat":
		q, err := r.nums(4)
		if err != nil {
			return pos, geom.Rotation{}, err
		}
		rot, err := geom.FromQuaternion(q[0], q[1], q[2], q[3])
		return pos, rot, err
	}
	return pos, geom.Rotation{}, errors.Errorf("Unknown rotation kind %q", w)
}

// move reads "parent|local x y z [rotation]".
func (r *argReader) move() (bool, geom.Isometry, error) {
	w, ok := r.peekWord()
	if !ok || (w != "parent" && w != "local") {
		return false, geom.Isometry{}, errors.Errorf("Expected parent or local")
	}
	r.pos++
	pos, rot, err := r.transform()
	if err != nil {
		return false, geom.Isometry{}, err
	}
	if err := r.done(); err != nil {
		return false, geom.Isometry{}, err
	}
	return w == "local", geom.NewIsometry(pos, rot), nil
}

func (r *argReader) done() error {
	if r.pos < len(r.args) {
		return errors.Errorf("Unexpected argument %v", r.args[r.pos])
	}
	return nil
}
