package app

import (
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/modules/checkpoint"
	"github.com/vk/voxelflow/modules/create"
	"github.com/vk/voxelflow/modules/manage"
	"github.com/vk/voxelflow/modules/statistics"
	"github.com/vk/voxelflow/modules/transform"
)

// coreModules is the definitive list of all step modules compiled into the
// voxelflow binary.
var coreModules = []registry.Module{
	&create.Module{},
	&manage.Module{},
	&transform.Module{},
	&statistics.Module{},
	&checkpoint.Module{},
}
