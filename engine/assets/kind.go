package assets

import (
	"fmt"
)

// Kind is the closed set of asset types a manifest may reference.
type Kind int

const (
	KindInvalid Kind = iota
	KindModel
	KindTexture
	KindCubeTexture
	KindEXR
	KindHDR
	KindVideo
)

var kindNames = map[Kind]string{
	KindModel:       "gltfModel",
	KindTexture:     "texture",
	KindCubeTexture: "cubeTexture",
	KindEXR:         "EXR",
	KindHDR:         "HDR",
	KindVideo:       "videoTexture",
}

var kindAliases = map[string]Kind{
	"glbModel":     KindModel,
	"gltfModel":    KindModel,
	"texture":      KindTexture,
	"cubeTexture":  KindCubeTexture,
	"EXR":          KindEXR,
	"HDR":          KindHDR,
	"videoTexture": KindVideo,
}

// ParseKind maps a manifest type tag to a Kind.
func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[s]
	if !ok {
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
