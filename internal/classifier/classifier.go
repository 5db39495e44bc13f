package classifier

import (
	"errors"
	"math"

	"guardian-backend/internal/models"
)

// ErrInvalidSnapshot is returned for a snapshot that claims a person is
// present but ships pose keypoints with required landmarks missing. Callers
// degrade to (unknown, 0) instead of propagating it up the pipeline.
var ErrInvalidSnapshot = errors.New("invalid detection snapshot")

const (
	// Horizontal wrist-to-nose distance below which a raised hand counts as
	// held near the face, in normalized image coordinates.
	defaultHandNearFaceMaxDX = 0.2
	// Nose depth below which the head counts as leaning toward the desk.
	defaultForwardLeanMaxZ = -0.1
)

// rule is one step of the classification chain. Rules run top-down and the
// first match wins, so ordering encodes priority.
type rule struct {
	name  string
	match func(models.DetectionSnapshot) (models.ClassificationResult, bool)
}

// Classifier turns a detection snapshot into an activity label with a
// confidence. It is stateless and safe for concurrent use.
type Classifier struct {
	handNearFaceMaxDX float64
	forwardLeanMaxZ   float64
	rules             []rule
}

func New() *Classifier {
	c := &Classifier{
		handNearFaceMaxDX: defaultHandNearFaceMaxDX,
		forwardLeanMaxZ:   defaultForwardLeanMaxZ,
	}
	c.rules = []rule{
		{"no-person", c.matchAway},
		{"no-pose", c.matchUnknown},
		{"hand-near-face", c.matchPlaying},
		{"forward-lean", c.matchStudying},
		{"fallback", c.matchIdle},
	}
	return c
}

func (c *Classifier) Classify(snap models.DetectionSnapshot) (models.ClassificationResult, error) {
	if snap.PersonDetected && snap.Pose != nil && !poseComplete(snap.Pose) {
		return models.ClassificationResult{}, ErrInvalidSnapshot
	}

	for _, r := range c.rules {
		if result, ok := r.match(snap); ok {
			return result, nil
		}
	}

	// Unreachable: the fallback rule always matches.
	return models.ClassificationResult{Label: models.ActivityUnknown}, nil
}

func poseComplete(pose *models.PoseKeypoints) bool {
	return pose.Nose != nil && pose.LeftShoulder != nil && pose.RightShoulder != nil
}

func (c *Classifier) matchAway(snap models.DetectionSnapshot) (models.ClassificationResult, bool) {
	if snap.PersonDetected {
		return models.ClassificationResult{}, false
	}
	return models.ClassificationResult{Label: models.ActivityAway, Confidence: 0.9}, true
}

func (c *Classifier) matchUnknown(snap models.DetectionSnapshot) (models.ClassificationResult, bool) {
	if snap.Pose != nil {
		return models.ClassificationResult{}, false
	}
	return models.ClassificationResult{Label: models.ActivityUnknown, Confidence: 0.5}, true
}

// matchPlaying fires when any hand is raised above shoulder level and held
// close to the face, the typical phone-in-hand posture.
func (c *Classifier) matchPlaying(snap models.DetectionSnapshot) (models.ClassificationResult, bool) {
	pose := snap.Pose
	shoulderY := (pose.LeftShoulder.Y + pose.RightShoulder.Y) / 2

	for _, hand := range snap.Hands {
		raised := hand.Wrist.Y < shoulderY
		nearFace := math.Abs(hand.Wrist.X-pose.Nose.X) < c.handNearFaceMaxDX
		if raised && nearFace {
			return models.ClassificationResult{Label: models.ActivityPlaying, Confidence: 0.85}, true
		}
	}
	return models.ClassificationResult{}, false
}

func (c *Classifier) matchStudying(snap models.DetectionSnapshot) (models.ClassificationResult, bool) {
	if snap.Pose.Nose.Z >= c.forwardLeanMaxZ {
		return models.ClassificationResult{}, false
	}
	return models.ClassificationResult{Label: models.ActivityStudying, Confidence: 0.8}, true
}

func (c *Classifier) matchIdle(models.DetectionSnapshot) (models.ClassificationResult, bool) {
	return models.ClassificationResult{Label: models.ActivityIdle, Confidence: 0.6}, true
}
