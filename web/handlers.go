package web

import (
	"bytes"
	"io/ioutil"
	"net/http"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/frametree/config"
	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
	"github.com/mogaika/frametree/utils/gltfutils"
	"github.com/mogaika/frametree/webutils"
)

type TransformJson struct {
	Position   [3]float64 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"`
	RPY        [3]float64 `json:"rpy"`
}

func newTransformJson(iso geom.Isometry) TransformJson {
	q := iso.Rotation
	e := iso.Orientation().RPY()
	return TransformJson{
		Position:   iso.Translation,
		Quaternion: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		RPY:        [3]float64{e.Roll, e.Pitch, e.Yaw},
	}
}

type FrameJson struct {
	Name     string        `json:"name"`
	ID       string        `json:"id"`
	Path     string        `json:"path"`
	Depth    int           `json:"depth"`
	Parent   string        `json:"parent,omitempty"`
	Children []string      `json:"children"`
	Local    TransformJson `json:"local"`
	InRoot   TransformJson `json:"in_root"`
}

func newFrameJson(f frame.Frame) (*FrameJson, error) {
	inRoot, err := f.TransformTo(f.Root())
	if err != nil {
		return nil, err
	}
	fj := &FrameJson{
		Name:     f.Name(),
		ID:       f.ID().String(),
		Path:     f.Path(),
		Depth:    f.Depth(),
		Children: make([]string, 0),
		Local:    newTransformJson(f.TransformToParent()),
		InRoot:   newTransformJson(inRoot),
	}
	if parent, ok := f.Parent(); ok {
		fj.Parent = parent.Path()
	}
	for _, c := range f.Children() {
		fj.Children = append(fj.Children, c.Name())
	}
	return fj, nil
}

type PoseJson struct {
	Label     string        `json:"label"`
	Frame     string        `json:"frame,omitempty"`
	Reclaimed bool          `json:"reclaimed"`
	Transform TransformJson `json:"transform"`
}

func newPoseJson(label string, p *frame.Pose) PoseJson {
	pj := PoseJson{Label: label, Transform: newTransformJson(p.Transformation())}
	if f, ok := p.Frame(); ok {
		pj.Frame = f.Path()
	} else {
		pj.Reclaimed = true
	}
	return pj
}

// TransformRequest is the body of child, transform and pose actions.
// Mode is one of set, parent or local and only used by transform.
type TransformRequest struct {
	Name        string             `json:"name,omitempty"`
	Frame       string             `json:"frame,omitempty"`
	Mode        string             `json:"mode,omitempty"`
	Position    []float64          `json:"position"`
	Orientation config.Orientation `json:"orientation"`
}

func (tr *TransformRequest) transform() (mgl64.Vec3, geom.Rotation, error) {
	var pos mgl64.Vec3
	switch len(tr.Position) {
	case 0:
	case 3:
		copy(pos[:], tr.Position)
	default:
		return pos, geom.Rotation{}, errors.Errorf("position needs 3 values, got %d", len(tr.Position))
	}
	rot, err := tr.Orientation.Rotation()
	return pos, rot, err
}

type ResolveRequest struct {
	Target string `json:"target"`
	// stored under this label when set
	Result string `json:"result,omitempty"`
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, frame.ErrFrameNotFound):
		return http.StatusNotFound
	case frame.IsNameCollision(err):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, err error) {
	webutils.WriteError(w, err, errorCode(err))
}

func (s *Server) root(name string) (frame.Frame, error) {
	root, ok := s.scene.Root(name)
	if !ok {
		return frame.Frame{}, errors.Wrapf(frame.ErrFrameNotFound, "No root %q", name)
	}
	return root, nil
}

func (s *Server) HandlerRoots(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	roots := make([]*FrameJson, 0)
	for _, root := range s.scene.Roots() {
		fj, err := newFrameJson(root)
		if err != nil {
			writeError(w, err)
			return
		}
		roots = append(roots, fj)
	}
	webutils.WriteJson(w, roots)
}

func (s *Server) HandlerTree(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if root, err := s.root(mux.Vars(r)["root"]); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, config.NewDocument(root.Snapshot(), config.Exact()))
	}
}

func (s *Server) HandlerFrame(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	f, err := s.scene.Frame(mux.Vars(r)["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	if fj, err := newFrameJson(f); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, fj)
	}
}

func (s *Server) HandlerActionRoot(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	root, err := s.scene.AddRoot(mux.Vars(r)["root"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.changed(root.Path())
	fj, _ := newFrameJson(root)
	webutils.WriteJson(w, fj)
}

func (s *Server) HandlerActionChild(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := webutils.ReadJsonBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, rot, err := req.transform()
	if err != nil {
		writeError(w, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	parent, err := s.scene.Frame(mux.Vars(r)["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	child, err := parent.AddChild(req.Name, pos, rot)
	if err != nil {
		writeError(w, err)
		return
	}
	s.changed(child.Path())

	if fj, err := newFrameJson(child); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, fj)
	}
}

func (s *Server) HandlerActionTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := webutils.ReadJsonBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, rot, err := req.transform()
	if err != nil {
		writeError(w, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	f, err := s.scene.Frame(mux.Vars(r)["path"])
	if err != nil {
		writeError(w, err)
		return
	}

	switch req.Mode {
	case "", "set":
		err = f.UpdateTransform(pos, rot)
	case "parent":
		err = f.ApplyInParentFrame(geom.NewIsometry(pos, rot))
	case "local":
		err = f.ApplyInLocalFrame(geom.NewIsometry(pos, rot))
	default:
		err = errors.Errorf("Unknown transform mode %q", req.Mode)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.changed(f.Path())

	if fj, err := newFrameJson(f); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, fj)
	}
}

func (s *Server) HandlerActionScript(w http.ResponseWriter, r *http.Request) {
	text, err := ioutil.ReadAll(r.Body)
	if err != nil {
		writeError(w, errors.Wrapf(err, "Failed to read script"))
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.scene.Run(text); err != nil {
		if s.hub != nil {
			s.hub.Error("script failed: %v", err)
		}
		writeError(w, err)
		return
	}
	if s.hub != nil {
		s.hub.Info("script executed")
	}
	webutils.WriteJson(w, s.scene.Labels())
}

func (s *Server) HandlerPoses(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	poses := make([]PoseJson, 0)
	for _, label := range s.scene.Labels() {
		p, _ := s.scene.Pose(label)
		poses = append(poses, newPoseJson(label, p))
	}
	webutils.WriteJson(w, poses)
}

func (s *Server) HandlerPose(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	label := mux.Vars(r)["label"]
	if p, ok := s.scene.Pose(label); !ok {
		webutils.WriteError(w, errors.Errorf("Unknown pose $%s", label), http.StatusNotFound)
	} else {
		webutils.WriteJson(w, newPoseJson(label, p))
	}
}

func (s *Server) HandlerActionPose(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := webutils.ReadJsonBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, rot, err := req.transform()
	if err != nil {
		writeError(w, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	f, err := s.scene.Frame(req.Frame)
	if err != nil {
		writeError(w, err)
		return
	}
	label := mux.Vars(r)["label"]
	p := f.AddPose(pos, rot)
	s.scene.SetPose(label, p)
	webutils.WriteJson(w, newPoseJson(label, p))
}

func (s *Server) HandlerActionResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := webutils.ReadJsonBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	label := mux.Vars(r)["label"]
	p, ok := s.scene.Pose(label)
	if !ok {
		webutils.WriteError(w, errors.Errorf("Unknown pose $%s", label), http.StatusNotFound)
		return
	}
	target, err := s.scene.Frame(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	resolved, err := p.InFrame(target)
	if err != nil {
		writeError(w, err)
		return
	}

	resultLabel := label
	if req.Result != "" {
		s.scene.SetPose(req.Result, resolved)
		resultLabel = req.Result
	}
	webutils.WriteJson(w, newPoseJson(resultLabel, resolved))
}

// HandlerUploadTree applies an uploaded tree document to the root with the
// same name, or adds it as a new root.
func (s *Server) HandlerUploadTree(w http.ResponseWriter, r *http.Request) {
	data, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		writeError(w, err)
		return
	}
	format := config.FormatJSON
	if r.FormValue("format") == "yaml" {
		format = config.FormatYAML
	}
	snap, err := config.Unmarshal(data, format)
	if err != nil {
		writeError(w, err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	root, exists := s.scene.Root(snap.Name)
	if !exists {
		root = frame.NewRoot(snap.Name)
	}
	if err := root.Apply(snap); err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		if err := s.scene.AdoptRoot(root); err != nil {
			writeError(w, err)
			return
		}
	}
	s.changed(root.Path())

	fj, _ := newFrameJson(root)
	webutils.WriteJson(w, fj)
}

func (s *Server) HandlerDumpTree(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	root, err := s.root(mux.Vars(r)["root"])
	if err != nil {
		writeError(w, err)
		return
	}
	opts := s.DumpOptions
	opts.Format = config.FormatJSON
	data, err := config.Marshal(root.Snapshot(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), root.Name()+".json")
}

func (s *Server) HandlerDumpGLTF(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	root, err := s.root(mux.Vars(r)["root"])
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportTree(&buf, root, true); err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, root.Name()+".glb")
}
