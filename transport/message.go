// Package transport defines the messages handed to consumers and an in-process bus that delivers
// them.
package transport

import (
	"time"

	"go.viam.com/depthpub/pointcloud"
)

// Image encodings.
const (
	Encoding32FC1 = "32FC1"
	EncodingBGR8  = "bgr8"
)

// Header identifies the frame a message is expressed in and when it was produced.
type Header struct {
	Seq     uint64
	FrameID string
	Stamp   time.Time
}

// A Message is anything that can be published. Once published, a message belongs to the transport.
type Message interface {
	MessageHeader() Header
}

// ImageMessage is a dense row-major image. Step is the length of a row in bytes.
type ImageMessage struct {
	Header   Header
	Encoding string
	Width    int
	Height   int
	Step     int
	Data     []byte
}

// MessageHeader returns the header of the image.
func (m *ImageMessage) MessageHeader() Header {
	return m.Header
}

// PointCloudMessage carries exactly one of Cloud or Colored.
type PointCloudMessage struct {
	Header  Header
	Cloud   *pointcloud.Cloud
	Colored *pointcloud.ColoredCloud
}

// MessageHeader returns the header of the point cloud.
func (m *PointCloudMessage) MessageHeader() Header {
	return m.Header
}

// Size returns the number of points carried.
func (m *PointCloudMessage) Size() int {
	switch {
	case m.Cloud != nil:
		return m.Cloud.Size()
	case m.Colored != nil:
		return m.Colored.Size()
	default:
		return 0
	}
}

// MetaData returns the bounds of the points carried.
func (m *PointCloudMessage) MetaData() pointcloud.MetaData {
	switch {
	case m.Cloud != nil:
		return m.Cloud.MetaData()
	case m.Colored != nil:
		return m.Colored.MetaData()
	default:
		return pointcloud.NewMetaData()
	}
}
