/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

// schemaJSON constrains the YAML config file. Unknown keys are allowed so that
// newer files still load in older builds.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "config_version": {"type": "integer", "minimum": 1},
    "canvas": {
      "type": "object",
      "properties": {
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0},
        "unit": {"enum": ["px", "mm", "cm", "in", "pt", "pc"]},
        "resolution": {"type": "number", "exclusiveMinimum": 0},
        "resolution_unit": {"enum": ["px/in", "px/cm", "px/mm", "px/pt", "px/pc"]},
        "background": {"type": "string", "pattern": "^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$"}
      }
    },
    "editor": {
      "type": "object",
      "properties": {
        "undo_limit": {"type": "integer", "minimum": 0},
        "grid_x": {"type": "number", "exclusiveMinimum": 0},
        "grid_y": {"type": "number", "exclusiveMinimum": 0},
        "show_grid": {"type": "boolean"},
        "min_scale": {"type": "number", "exclusiveMinimum": 0},
        "max_scale": {"type": "number", "exclusiveMinimum": 0},
        "wheel_notch": {"type": "integer", "minimum": 1}
      }
    },
    "saving": {
      "type": "object",
      "properties": {
        "chunk_size": {"type": "integer", "minimum": 1},
        "embed_images": {"type": "boolean"},
        "template_preview_px": {"type": "integer", "minimum": 16}
      }
    },
    "storage": {
      "type": "object",
      "properties": {
        "index_path": {"type": "string"},
        "recent_limit": {"type": "integer", "minimum": 1},
        "preview_max_bytes": {"type": "integer", "minimum": 0}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "warning", "error"]},
        "format": {"enum": ["console", "json"]},
        "source": {"type": "boolean"},
        "file": {"type": "string"}
      }
    }
  }
}`
