// Package agent defines the relist image server and API. Images are
// transferred as raw region bytes, which the receiver opens at whatever
// address they land.
package agent

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"goji.io"
	"goji.io/pat"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/region"
)

// Server is an http.Handler that serves the relist endpoints.
type Server struct {
	*goji.Mux
	d *Data
}

// New creates a Server.
func New(d *Data) Server {
	s := Server{
		Mux: goji.NewMux(),
		d:   d,
	}
	s.Handle(pat.Get("/images"), http.HandlerFunc(s.listImages))
	s.Handle(pat.Get("/images/:name"), http.HandlerFunc(s.image))
	s.Handle(pat.Get("/images/:name/values"), http.HandlerFunc(s.values))
	s.Handle(pat.Post("/images/:name/values"), http.HandlerFunc(s.push))
	return s
}

// ImageListResponse is the JSON structure returned by GET /images.
type ImageListResponse struct {
	Images []ImageDescription `json:"images"`
}

// ImageDescription is a JSON structure describing a single image.
type ImageDescription struct {
	Name     string `json:"name"`
	Len      int    `json:"len"`
	Capacity int    `json:"capacity"`
	InUse    int    `json:"in_use"`
}

// ValuesResponse is the JSON structure returned by GET /images/:name/values.
type ValuesResponse struct {
	Values []int64 `json:"values"`
	Digest string  `json:"digest"`
}

// PushRequest is the JSON structure defining the input to POST
// /images/:name/values. The values are appended in order.
type PushRequest struct {
	Values []int64 `json:"values"`
}

// PushResponse is the JSON structure returned by POST /images/:name/values.
type PushResponse struct {
	Len int `json:"len"`
}

func status(err error) int {
	switch {
	case errors.Is(err, ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, list.ErrOutOfMemory):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, err error) {
	logrus.Debugf("agent: %s", err)
	http.Error(w, err.Error(), status(err))
}

func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	out := ImageListResponse{
		Images: []ImageDescription{}, // non-null empty list
	}
	s.d.mu.Lock()
	names := maps.Keys(s.d.Images)
	s.d.mu.Unlock()
	slices.Sort(names)
	for _, name := range names {
		err := s.d.with(name, func(rg *region.Region, l *list.List[int64, region.Addr]) error {
			out.Images = append(out.Images, ImageDescription{
				Name:     name,
				Len:      l.Len(),
				Capacity: rg.Cap(),
				InUse:    rg.InUse(),
			})
			return nil
		})
		if err != nil {
			fail(w, err)
			return
		}
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		w.WriteHeader(http.StatusBadGateway)
	}
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	err := s.d.with(pat.Param(r, "name"), func(rg *region.Region, l *list.List[int64, region.Addr]) error {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("ETag", `"`+Digest(l.Values())+`"`)
		_, err := rg.WriteTo(w)
		return err
	})
	if err != nil {
		fail(w, err)
	}
}

func (s *Server) values(w http.ResponseWriter, r *http.Request) {
	var out ValuesResponse
	err := s.d.with(pat.Param(r, "name"), func(_ *region.Region, l *list.List[int64, region.Addr]) error {
		out.Values = make([]int64, 0, l.Len())
		for v := range l.Values() {
			out.Values = append(out.Values, v)
		}
		out.Digest = Digest(l.Values())
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		w.WriteHeader(http.StatusBadGateway)
	}
}

func (s *Server) push(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var out PushResponse
	err := s.d.with(pat.Param(r, "name"), func(_ *region.Region, l *list.List[int64, region.Addr]) error {
		n := l.Len()
		for _, v := range req.Values {
			if _, err := l.PushBack(v); err != nil {
				// All or nothing.
				for l.Len() > n {
					l.PopBack()
				}
				return err
			}
		}
		out.Len = l.Len()
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		w.WriteHeader(http.StatusBadGateway)
	}
}
