package media

import (
	"context"
	"fmt"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog/log"
)

var transformations = map[Kind]string{
	KindAvatar: "c_limit,w_400,h_400,q_auto",
	KindBanner: "c_limit,w_1500,h_500,q_auto",
	KindPost:   "c_limit,w_1080,h_1350,q_auto",
}

// CloudinaryStore uploads images to Cloudinary under a root folder.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(url, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, kind Kind, name string, img Image) (string, error) {
	params := s.uploadParams(kind, name)
	res, err := s.cld.Upload.Upload(ctx, img.reader(), params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	log.Debug().Str("public_id", res.PublicID).Msg("image uploaded")
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, kind Kind, name string) error {
	res, err := s.cld.Upload.Destroy(ctx, s.destroyParams(kind, name))
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) destroyParams(kind Kind, name string) uploader.DestroyParams {
	return uploader.DestroyParams{PublicID: path.Join(s.folder, string(kind), name)}
}

func (s *CloudinaryStore) uploadParams(kind Kind, name string) uploader.UploadParams {
	return uploader.UploadParams{
		Folder:         path.Join(s.folder, string(kind)),
		PublicID:       name,
		Transformation: transformations[kind],
	}
}
