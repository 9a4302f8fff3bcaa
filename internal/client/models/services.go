package models

import (
	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/common"
)

const MediaTypeBinary = common.MediaTypeBinary

var (
	FileTypeModel = entity.TypeModel{
		App: "tutanota", ID: 13, Name: "File", Version: "49",
		Encrypted: true, EncryptedValues: []string{"name", "mimeType"},
	}
	FileDataDataGetTypeModel    = entity.TypeModel{App: "tutanota", ID: 331, Name: "FileDataDataGet", Version: "49"}
	FileDataDataPostTypeModel   = entity.TypeModel{App: "tutanota", ID: 335, Name: "FileDataDataPost", Version: "49"}
	FileDataReturnPostTypeModel = entity.TypeModel{App: "tutanota", ID: 342, Name: "FileDataDataReturn", Version: "49"}

	BlobDataGetTypeModel         = entity.TypeModel{App: "storage", ID: 52, Name: "BlobDataGet", Version: "4"}
	BlobAccessTokenDataTypeModel = entity.TypeModel{App: "storage", ID: 77, Name: "BlobAccessTokenData", Version: "4"}
)

var (
	BlobAccessTokenService = entity.Service{App: "storage", Name: "BlobAccessTokenService", RequestModel: BlobAccessTokenDataTypeModel}
	BlobService            = entity.Service{App: "storage", Name: "BlobService", RequestModel: BlobDataGetTypeModel}
	FileDataService        = entity.Service{App: "tutanota", Name: "FileDataService", RequestModel: FileDataDataPostTypeModel}
)
