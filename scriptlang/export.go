package scriptlang

import (
	"github.com/pkg/errors"

	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
)

// TreeScript renders a tree as root and child commands which rebuild it.
// Orientations are written as rpydeg.
func TreeScript(s frame.Snapshot) ([]*Command, error) {
	commands := []*Command{NewCommand("root", s.Name)}
	return appendChildren(commands, s.Name, s.Children)
}

func appendChildren(commands []*Command, parentPath string, children []frame.Snapshot) ([]*Command, error) {
	for _, c := range children {
		cmd := NewCommand("child", parentPath, c.Name)
		cmd.AddArgs(c.Position[0], c.Position[1], c.Position[2])

		o := c.Orientation
		if o != [4]float64{0, 0, 0, 1} {
			rot, err := geom.FromQuaternion(o[0], o[1], o[2], o[3])
			if err != nil {
				return nil, errors.Wrapf(err, "Frame %q", c.Name)
			}
			deg := geom.RadiansToDegrees(rot.RPY())
			cmd.AddArgs(Word("rpydeg"), deg.Roll, deg.Pitch, deg.Yaw)
		}
		commands = append(commands, cmd)

		var err error
		if commands, err = appendChildren(commands, parentPath+"/"+c.Name, c.Children); err != nil {
			return nil, err
		}
	}
	return commands, nil
}
